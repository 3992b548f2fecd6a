package topics

import (
	"errors"

	"github.com/nfrund/shellbus/internal/topicmgr"
)

// Shell topics. Names and versions are shared with independently deployed
// micro frontends and must not change; a new payload shape gets a new version.
var (
	// EventsTopic carries one-shot actions. Late joiners must not see actions that
	// already fired, so it never replays.
	EventsTopic = Define[Event](topicmgr.Definition{
		Name:        "events",
		Version:     1,
		Description: "One-shot actions such as the logout button being clicked",
		Example:     `{"type":"authentication#logoutButtonClicked"}`,
	})

	ParametersTopic = Define[Parameters](topicmgr.Definition{
		Name:        "parameters",
		Version:     1,
		ReplayLast:  true,
		Description: "Parameters per product and application",
		Example:     `{"parameters":[{"productName":"orders","appId":"orders-ui","parameters":{"pageSize":20}}]}`,
	})

	CurrentLocationTopic = Define[Location](topicmgr.Definition{
		Name:        "currentLocation",
		Version:     1,
		ReplayLast:  true,
		Description: "Current router location of the shell",
		Example:     `{"url":"/workspace/orders","isFirst":false}`,
	})

	CurrentMfeTopic = Define[MfeInfo](topicmgr.Definition{
		Name:        "currentMfe",
		Version:     1,
		ReplayLast:  true,
		Description: "Micro frontend currently mounted by the shell",
		Example:     `{"mountPath":"/orders","appId":"orders-ui","productName":"orders"}`,
	})

	CurrentPageTopic = Define[PageInfo](topicmgr.Definition{
		Name:        "currentPage",
		Version:     1,
		ReplayLast:  true,
		Description: "Page the user is on",
		Example:     `{"path":"/orders/42","pageName":"order-detail"}`,
	})

	CurrentWorkspaceTopic = Define[Workspace](topicmgr.Definition{
		Name:        "currentWorkspace",
		Version:     1,
		ReplayLast:  true,
		Description: "Workspace served by the shell",
		Example:     `{"workspaceName":"admin","baseUrl":"/admin"}`,
	})

	CurrentThemeTopic = Define[Theme](topicmgr.Definition{
		Name:        "currentTheme",
		Version:     1,
		ReplayLast:  true,
		Description: "Active theme",
		Example:     `{"name":"dark"}`,
	})

	UserProfileTopic = Define[UserProfile](topicmgr.Definition{
		Name:        "userProfile",
		Version:     1,
		ReplayLast:  true,
		Description: "Signed-in user and account settings",
		Example:     `{"userId":"u-1","person":{"displayName":"Ada"},"accountSettings":{"localeAndTimeSettings":{"locale":"en-GB"}}}`,
	})

	PermissionsTopic = Define[Permissions](topicmgr.Definition{
		Name:        "permissions",
		Version:     1,
		ReplayLast:  true,
		Description: "Permission keys of the current user",
		Example:     `["ORDER#VIEW","ORDER#EDIT"]`,
	})

	PermissionsRPCTopic = Define[PermissionsRPC](topicmgr.Definition{
		Name:        "permissionsRpc",
		Version:     1,
		Description: "Request and response for the permissions of one application",
		Example:     `{"appId":"orders-ui","productName":"orders"}`,
		Metadata:    map[string]any{"pattern": "rpc"},
	})

	IconTopic = Define[ResourceRequest](topicmgr.Definition{
		Name:        "icon",
		Version:     1,
		Description: "Request and response for icon resources",
		Example:     `{"name":"mdi:home","type":"svg"}`,
		Metadata:    map[string]any{"pattern": "rpc"},
	})

	ImageTopic = Define[ResourceRequest](topicmgr.Definition{
		Name:        "image",
		Version:     1,
		Description: "Request and response for image resources",
		Example:     `{"name":"logo","type":"png"}`,
		Metadata:    map[string]any{"pattern": "rpc"},
	})

	TranslationCacheTopic = Define[TranslationCacheEntry](topicmgr.Definition{
		Name:        "translationCache",
		Version:     1,
		Description: "Request and response for cached translation files",
		Example:     `{"id":"orders-ui","key":"/assets/i18n/de.json"}`,
		Metadata:    map[string]any{"pattern": "rpc"},
	})

	IsAuthenticatedTopic = Define[bool](topicmgr.Definition{
		Name:        "isAuthenticated",
		Version:     1,
		ReplayLast:  true,
		Description: "Whether the user has signed in",
		Example:     `true`,
	})

	GlobalLoadingTopic = Define[bool](topicmgr.Definition{
		Name:        "globalLoading",
		Version:     1,
		ReplayLast:  true,
		Description: "Whether the shell shows its global loading indicator",
		Example:     `false`,
	})

	GlobalErrorTopic = Define[GlobalError](topicmgr.Definition{
		Name:        "globalError",
		Version:     1,
		ReplayLast:  true,
		Description: "Error shown by the shell; empty clears it",
		Example:     `"Service unavailable"`,
	})

	ConfigurationTopic = Define[Configuration](topicmgr.Definition{
		Name:        "configuration",
		Version:     1,
		ReplayLast:  true,
		Description: "Shell configuration key/value pairs",
		Example:     `{"APP_BASE_HREF":"/"}`,
	})
)

// All returns the catalog entry of every shell topic.
func All() []topicmgr.Topic {
	return []topicmgr.Topic{
		EventsTopic.Definition(),
		ParametersTopic.Definition(),
		CurrentLocationTopic.Definition(),
		CurrentMfeTopic.Definition(),
		CurrentPageTopic.Definition(),
		CurrentWorkspaceTopic.Definition(),
		CurrentThemeTopic.Definition(),
		UserProfileTopic.Definition(),
		PermissionsTopic.Definition(),
		PermissionsRPCTopic.Definition(),
		IconTopic.Definition(),
		ImageTopic.Definition(),
		TranslationCacheTopic.Definition(),
		IsAuthenticatedTopic.Definition(),
		GlobalLoadingTopic.Definition(),
		GlobalErrorTopic.Definition(),
		ConfigurationTopic.Definition(),
	}
}

// Register adds every shell topic to m. Topics that are already registered
// are skipped, so registering twice is harmless.
func Register(m *topicmgr.Manager) error {
	var errs []error
	for _, t := range All() {
		if _, exists := m.Lookup(t.Key()); exists {
			continue
		}
		if err := m.Register(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
