// Package topics is the catalog of well-known shell topics: the (name,
// version, replay) triples and payload shapes that the shell and its micro
// frontends share.
//
// Each entry is a Kind, which constructs a typed topic or publisher on a
// channel registry:
//
//	theme := topics.CurrentThemeTopic.Topic(reg)
//	defer theme.Destroy()
//	theme.Subscribe(func(t topics.Theme) { ... })
package topics
