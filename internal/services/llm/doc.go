// Package llm provides the chat client used to request labels and Q/A pairs
// from an OpenAI-compatible multimodal endpoint.
//
// # Request shape
//
// Messages are role-tagged turns whose content is plain text or a list of
// text, image_url and video_url parts. Media is inlined as base64 data URIs
// produced by the framecache package.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Chat: one synchronous round trip, returns the best choice's text.
// Client.HealthCheck: verify the endpoint and model answer.
// ExtractObject / DecodeObject: recover a JSON object from model text.
//
// # Failure Behaviour
//
// There is no retry. Non-2xx responses and undecodable envelopes fail with
// services.ErrExternalTool; empty content and unparseable replies fail with
// services.ErrMalformedResponse. Optional pacing (requests_per_minute) uses a
// token bucket and honours context cancellation.
//
// # Structured Output
//
// Replies are parsed by trying, in order: the whole text, the first fenced
// ```json block, and the span from the first '{' to the last '}'. The first
// candidate that decodes to a JSON object wins.
package llm
