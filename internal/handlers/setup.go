package handlers

import (
	"fmt"
	"net/http"
	"time"

	"groupchat-backend/internal/identity"
	"groupchat-backend/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var sugar *zap.SugaredLogger
var resolver *identity.Resolver
var devLoginEnabled bool

var validate = validator.New()

// Router builds the full API surface. Split from Setup so tests can mount it
// on httptest servers.
func Router(cfg *models.ConfigFile, _sugar *zap.SugaredLogger, _resolver *identity.Resolver) chi.Router {
	sugar = _sugar
	resolver = _resolver
	devLoginEnabled = cfg.DevLogin

	r := chi.NewRouter()

	if cfg.Cors {
		r.Use(AllowCors)
	}
	if cfg.PrintHttpRequests {
		r.Use(middleware.Logger)
	}

	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(api chi.Router) {
		api.Get("/test", Test)

		api.Route("/auth", func(r chi.Router) {
			if cfg.DevLogin {
				r.Post("/devLogin", DevLogin)
			}
			r.With(UserVerifier).Get("/newSession", NewSession)
			r.With(UserVerifier).Get("/isLoggedIn", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
		})

		api.Route("/servers", func(r chi.Router) {
			r.Use(UserVerifier)
			r.Post("/", CreateServer)
			r.Get("/", GetServerList)

			r.Route("/{serverID}", func(r chi.Router) {
				r.Patch("/", UpdateServer)
				r.Delete("/", DeleteServer)

				r.Post("/channels", CreateChannel)
				r.Get("/channels", GetChannelList)
				r.Patch("/channels/reorder", ReorderChannels)

				r.Post("/join", JoinServer)
				r.Post("/leave", LeaveServer)
				r.Get("/members", GetMemberList)
				r.Delete("/members/{userID}", RemoveMember)
			})
		})

		api.Route("/channels/{channelID}", func(r chi.Router) {
			r.Use(UserVerifier)
			r.Patch("/", RenameChannel)
			r.Delete("/", DeleteChannel)
			r.Get("/messages", GetMessageList)
			r.Post("/messages", CreateMessage)
		})

		api.Route("/messages/{messageID}", func(r chi.Router) {
			r.Use(UserVerifier)
			r.Patch("/", EditMessage)
			r.Delete("/", DeleteMessage)
		})
	})

	var websocketPath string
	if cfg.BehindNginx {
		websocketPath = "/ws/"
	} else {
		websocketPath = "/ws"
	}
	r.With(UserVerifier).Get(websocketPath, HandleWebSocket)

	return r
}

func Setup(isHttps bool, cfg *models.ConfigFile, _sugar *zap.SugaredLogger, _resolver *identity.Resolver) error {
	r := Router(cfg, _sugar, _resolver)

	address := fmt.Sprintf("%s:%s", cfg.Address, cfg.Port)

	if isHttps {
		return http.ListenAndServeTLS(address, cfg.TlsCert, cfg.TlsKey, r)
	}
	return http.ListenAndServe(address, r)
}
