package topics

// Event is a one-shot action broadcast on the events topic, e.g. a click on
// the logout button.
type Event struct {
	Type    string         `json:"type" msgpack:"type"`
	Payload map[string]any `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// Well-known event types.
const (
	EventLogoutButtonClicked = "authentication#logoutButtonClicked"
	EventNavigated           = "navigated"
	EventRevertConfig        = "revertConfig"
)

// Parameters are shell-wide key/value parameters per product and application.
type Parameters struct {
	Parameters []ProductParameters `json:"parameters" msgpack:"parameters"`
}

// ProductParameters holds the parameters of one application of a product.
type ProductParameters struct {
	ProductName   string         `json:"productName" msgpack:"productName"`
	ApplicationID string         `json:"appId" msgpack:"appId"`
	Parameters    map[string]any `json:"parameters" msgpack:"parameters"`
}

// Location is the current browser location as seen by the shell router.
type Location struct {
	URL     string `json:"url,omitempty" msgpack:"url,omitempty"`
	IsFirst bool   `json:"isFirst" msgpack:"isFirst"`
}

// MfeInfo describes the micro frontend currently mounted by the shell.
type MfeInfo struct {
	MountPath     string `json:"mountPath" msgpack:"mountPath"`
	RemoteBaseURL string `json:"remoteBaseUrl" msgpack:"remoteBaseUrl"`
	BaseHref      string `json:"baseHref" msgpack:"baseHref"`
	ShellName     string `json:"shellName" msgpack:"shellName"`
	AppID         string `json:"appId" msgpack:"appId"`
	ProductName   string `json:"productName" msgpack:"productName"`
	RemoteName    string `json:"remoteName,omitempty" msgpack:"remoteName,omitempty"`
	ElementName   string `json:"elementName,omitempty" msgpack:"elementName,omitempty"`
}

// PageInfo describes the page the user is on.
type PageInfo struct {
	Path          string `json:"path" msgpack:"path"`
	PageName      string `json:"pageName,omitempty" msgpack:"pageName,omitempty"`
	ApplicationID string `json:"applicationId,omitempty" msgpack:"applicationId,omitempty"`
}

// Workspace is the workspace the shell is serving.
type Workspace struct {
	ID            string  `json:"id,omitempty" msgpack:"id,omitempty"`
	WorkspaceName string  `json:"workspaceName" msgpack:"workspaceName"`
	DisplayName   string  `json:"displayName,omitempty" msgpack:"displayName,omitempty"`
	BaseURL       string  `json:"baseUrl" msgpack:"baseUrl"`
	HomePage      string  `json:"homePage,omitempty" msgpack:"homePage,omitempty"`
	Routes        []Route `json:"routes,omitempty" msgpack:"routes,omitempty"`
}

// Route maps a workspace path to a micro frontend.
type Route struct {
	URL         string `json:"url" msgpack:"url"`
	BaseURL     string `json:"baseUrl" msgpack:"baseUrl"`
	AppID       string `json:"appId" msgpack:"appId"`
	ProductName string `json:"productName" msgpack:"productName"`
}

// Theme is the active theme.
type Theme struct {
	ID         string            `json:"id,omitempty" msgpack:"id,omitempty"`
	Name       string            `json:"name" msgpack:"name"`
	LogoURL    string            `json:"logoUrl,omitempty" msgpack:"logoUrl,omitempty"`
	Properties map[string]string `json:"properties,omitempty" msgpack:"properties,omitempty"`
}

// UserProfile is the signed-in user.
type UserProfile struct {
	UserID          string          `json:"userId" msgpack:"userId"`
	Person          Person          `json:"person" msgpack:"person"`
	AccountSettings AccountSettings `json:"accountSettings" msgpack:"accountSettings"`
}

// Person holds the user's personal data.
type Person struct {
	FirstName   string `json:"firstName,omitempty" msgpack:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty" msgpack:"lastName,omitempty"`
	DisplayName string `json:"displayName,omitempty" msgpack:"displayName,omitempty"`
	Email       string `json:"email,omitempty" msgpack:"email,omitempty"`
}

// AccountSettings holds user preferences.
type AccountSettings struct {
	LocaleAndTimeSettings LocaleAndTimeSettings `json:"localeAndTimeSettings" msgpack:"localeAndTimeSettings"`
}

// LocaleAndTimeSettings holds the preferred locale and time zone.
type LocaleAndTimeSettings struct {
	Locale   string `json:"locale,omitempty" msgpack:"locale,omitempty"`
	Timezone string `json:"timezone,omitempty" msgpack:"timezone,omitempty"`
}

// Permissions is the set of permission keys of the current user.
type Permissions []string

// PermissionsRPC is a request/response pair for the permissions of one
// application. A request carries no Permissions.
type PermissionsRPC struct {
	AppID       string   `json:"appId" msgpack:"appId"`
	ProductName string   `json:"productName" msgpack:"productName"`
	Permissions []string `json:"permissions,omitempty" msgpack:"permissions,omitempty"`
}

// ResourceRequest asks the shell for a named icon or image; the shell answers
// with the same name and the resolved data.
type ResourceRequest struct {
	Name       string `json:"name" msgpack:"name"`
	Type       string `json:"type" msgpack:"type"`
	ResolvedTo string `json:"resolvedTo,omitempty" msgpack:"resolvedTo,omitempty"`
}

// TranslationCacheEntry is a request for, or the cached result of, one
// translation file.
type TranslationCacheEntry struct {
	ID    string         `json:"id" msgpack:"id"`
	Key   string         `json:"key" msgpack:"key"`
	Value map[string]any `json:"value,omitempty" msgpack:"value,omitempty"`
}

// GlobalError is the error currently shown by the shell. Empty clears it.
type GlobalError string

// Configuration is the shell configuration as key/value pairs.
type Configuration map[string]string
