package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"agri-market/models"
	"agri-market/repository"
	"agri-market/utils"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Key type for context
type contextKey string

const identityContextKey = contextKey("identity")

// UserLookup resolves the account behind a token.
type UserLookup interface {
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Authenticator verifies bearer tokens and attaches the caller to the context.
type Authenticator struct {
	tokens *utils.TokenManager
	users  UserLookup
}

func NewAuthenticator(tokens *utils.TokenManager, users UserLookup) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// WithIdentity returns a copy of ctx carrying the caller.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFrom returns the caller attached by Authenticate.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(models.Identity)
	return id, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// Authenticate verifies the JWT and re-reads the user it was issued to, so a
// deleted account loses access immediately and the stored role is authoritative.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invalid := utils.Unauthorized("Token is not valid")

		tokenStr := bearerToken(r)
		if tokenStr == "" {
			utils.WriteError(w, r, invalid)
			return
		}
		claims, err := a.tokens.Parse(tokenStr)
		if err != nil {
			zerolog.Ctx(r.Context()).Debug().Err(err).Msg("rejected token")
			utils.WriteError(w, r, invalid)
			return
		}
		userID, err := primitive.ObjectIDFromHex(claims.ID)
		if err != nil {
			utils.WriteError(w, r, invalid)
			return
		}
		user, err := a.users.FindUserByID(r.Context(), userID)
		if errors.Is(err, repository.ErrNotFound) {
			utils.WriteError(w, r, invalid)
			return
		}
		if err != nil {
			utils.WriteError(w, r, utils.ServerError(err))
			return
		}

		identity := models.Identity{ID: user.ID, Username: user.Username, Role: user.Role}
		zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("user_id", user.ID.Hex()).Str("role", string(user.Role))
		})
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// RequireRole ensures the authenticated caller has one of roles.
// It must run after Authenticate.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFrom(r.Context())
			if !ok {
				utils.WriteError(w, r, utils.Unauthorized("Token is not valid"))
				return
			}
			for _, role := range roles {
				if identity.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.WriteError(w, r, utils.Forbidden("Access denied"))
		})
	}
}
