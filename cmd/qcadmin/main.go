// Command qcadmin runs one-off administrative tasks against the QC
// database: schema migrations and bootstrapping the first manager.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
