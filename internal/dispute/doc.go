// Package dispute extracts dispute state changes from upstream events and
// decides whether and how to alert on them.
//
// ParseEvent turns a raw event's tag list into an Event record; Gates is the
// per-status enable policy; RenderMessage maps an Event to its outbound
// MarkdownV2 text. All three are pure; the package holds no state.
package dispute
