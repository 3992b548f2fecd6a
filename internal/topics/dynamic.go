package topics

import (
	"golang.org/x/text/language"

	"github.com/nfrund/shellbus/internal/dynamic"
	"github.com/nfrund/shellbus/internal/topic"
)

// CurrentLocale follows the locale of the signed-in user. Until a profile
// with a valid locale arrives it reports fallback.
func CurrentLocale(profile *topic.Topic[UserProfile], fallback language.Tag) dynamic.Locale {
	return dynamic.NewLocale(func() string {
		p, ok := profile.Value()
		if !ok {
			return ""
		}
		return p.AccountSettings.LocaleAndTimeSettings.Locale
	}, fallback)
}

// CurrentAppID follows the application id of the mounted micro frontend.
func CurrentAppID(mfe *topic.Topic[MfeInfo]) dynamic.String {
	return dynamic.NewString(func() string {
		info, ok := mfe.Value()
		if !ok {
			return ""
		}
		return info.AppID
	})
}
