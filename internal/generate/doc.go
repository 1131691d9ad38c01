// Package generate drives windowed annotation runs against a multimodal chat
// endpoint.
//
// Run is the shared sliding-window loop: it visits one window per stride,
// strictly in time order, and asks a Strategy to build the request, validate
// the reply and decide what a failed window yields. Two strategies exist:
//
//   - subtasks: contiguous labels, one per window, with an episode summary as
//     shared context. Any failed window fails the run.
//   - QA: sparse question/answer pairs checked against a short look-ahead
//     clip plus its first frame, deduplicated by normalized question. Bad
//     replies are skipped; in dense mode every step yields a record.
//
// Service resolves request defaults from configuration, serializes runs per
// episode through the annotation store and persists the results.
package generate
