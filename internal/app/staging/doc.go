// Package staging runs a request's side effects as an ordered plan.
//
// Each step knows how to undo itself. When a step fails, it and the steps
// before it are rolled back in reverse order:
//
//	plan := staging.NewPlan()
//	plan.Add(staging.Step{
//	    Name:     "store recording",
//	    Run:      func(ctx context.Context) error { return save(path) },
//	    Rollback: func(context.Context) error { return os.Remove(path) },
//	})
//	plan.Add(staging.Step{Name: "create call", Run: createCall})
//
//	if err := plan.Commit(ctx); err != nil {
//	    // the recording file has been removed again
//	}
package staging
