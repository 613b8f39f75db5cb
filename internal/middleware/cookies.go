package middleware

import (
	"net/http"

	"github.com/ezyshopper/storefront/internal/request"
	"github.com/gorilla/securecookie"
)

// NewCookieCodec returns the codec for signed cookies, or nil when no secret is configured.
func NewCookieCodec(secret string) *securecookie.SecureCookie {
	if secret == "" {
		return nil
	}
	codec := securecookie.New([]byte(secret), nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	return codec
}

// Cookies parses the Cookie header into request.Cookies.
// With a codec, cookies that verify are moved to Signed; everything else stays in Plain.
// When a name repeats, the first occurrence wins.
func Cookies(codec *securecookie.SecureCookie) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parsed := request.Cookies{
				Plain:  map[string]string{},
				Signed: map[string]string{},
			}
			for _, c := range r.Cookies() {
				if _, seen := parsed.Plain[c.Name]; seen {
					continue
				}
				if _, seen := parsed.Signed[c.Name]; seen {
					continue
				}
				if codec != nil {
					var value string
					if err := codec.Decode(c.Name, c.Value, &value); err == nil {
						parsed.Signed[c.Name] = value
						continue
					}
				}
				parsed.Plain[c.Name] = c.Value
			}

			next.ServeHTTP(w, r.WithContext(request.WithCookies(r.Context(), parsed)))
		})
	}
}

// SignedCookie builds a cookie whose value verifies against codec.
func SignedCookie(codec *securecookie.SecureCookie, name, value string) (*http.Cookie, error) {
	encoded, err := codec.Encode(name, value)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}
