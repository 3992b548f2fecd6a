// Package topicmgr is the catalog of well-known topics: every (name, version)
// pair the shell and its micro frontends agree on, with its replay policy and
// documentation.
//
// The catalog is documentation and lint, not access control. Any context can
// construct a topic.Topic for any name; the catalog only makes the agreed
// names discoverable and flags the mistakes that are easy to make with a
// string-keyed bus, such as two frontends using different versions of the
// same topic.
//
// Shell topics are defined by the host application:
//
//	var CurrentTheme = topicmgr.DefineFramework(topicmgr.Definition{
//		Name:        "currentTheme",
//		Version:     1,
//		ReplayLast:  true,
//		Description: "Theme selected by the user",
//		Example:     `{"name":"dark"}`,
//	})
//
// Micro frontend topics name their owning module:
//
//	var OrderSubmitted = topicmgr.DefineModule(topicmgr.Definition{
//		Name:        "orderSubmitted",
//		Version:     2,
//		Module:      "orders",
//		Description: "An order left the checkout",
//	})
//
// Topics are registered with a manager, usually the default one:
//
//	topicmgr.Default().MustRegister(CurrentTheme)
//	for _, c := range topicmgr.Default().Conflicts() {
//		log.Println(c)
//	}
package topicmgr
