// Package acl translates between the AI providers' wire formats and the
// domain transcript and insight types.
//
// Provider DTOs stay unexported in this package. Every adapter embeds
// [BaseAdapter], sends requests through the shared resilient client and
// reports failures through [MapHTTPError], so callers only ever see
// domain errors:
//
//   - 400, 413, 415, 422: domain.ValidationError (the recording or prompt was rejected)
//   - everything else, transport failures and an open breaker: domain.UnavailableError
//
// [ElevenLabsTranscriber] implements ports.Transcriber and
// [AzureOpenAIAnalyzer] implements ports.ConversationAnalyzer.
package acl
