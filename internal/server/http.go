package server

import (
	"encoding/json"
	stdhttp "net/http"
	"time"

	"feastly/membership-service/internal/auth"
	"feastly/membership-service/internal/conf"
	"feastly/membership-service/internal/service"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
)

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(NewHTTPServer)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Bootstrap, svc *service.MembershipService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			auth.Middleware(),
		),
		http.ErrorEncoder(customErrorEncoder),
	}
	if c.Server.Http.Addr != "" {
		opts = append(opts, http.Address(c.Server.Http.Addr))
	}
	if c.Server.Http.Timeout != "" {
		if d, err := time.ParseDuration(c.Server.Http.Timeout); err == nil {
			opts = append(opts, http.Timeout(d))
		}
	}
	srv := http.NewServer(opts...)

	registerRoutes(srv, svc)

	srv.Route("/").GET("/health", func(ctx http.Context) error {
		return ctx.Result(200, map[string]string{
			"status":  "ok",
			"service": "membership-service",
		})
	})

	return srv
}

func registerRoutes(srv *http.Server, svc *service.MembershipService) {
	v1 := srv.Route("/v1")

	// Public: the payment form needs the plan price before authentication.
	v1.GET("/membership/plan", svc.GetActivePlan)
	v1.POST("/membership/subscribe", svc.Subscribe)

	v1.GET("/subscriptions/me", svc.CurrentSubscription)
	v1.GET("/subscriptions", svc.ListSubscriptions)
	v1.POST("/subscriptions/cancel", svc.Cancel)
	v1.GET("/subscriptions/payments", svc.ListPayments)
	v1.GET("/subscriptions/payments/{id}/invoice", svc.GetInvoice)
	v1.POST("/subscriptions/payments/{id}/retry", svc.RetryPayment)
}

func customErrorEncoder(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	se := kerrors.FromError(err)
	status := stdhttp.StatusInternalServerError
	response := map[string]interface{}{
		"code":    status,
		"message": "internal server error",
	}

	if se != nil {
		status = mapErrorStatus(int(se.Code))
		response["code"] = se.Code
		response["reason"] = se.Reason
		response["message"] = se.Message
		if len(se.Metadata) > 0 {
			response["metadata"] = se.Metadata
		}
	} else if err != nil {
		response["message"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

func mapErrorStatus(code int) int {
	if code >= 100 && code < 600 {
		return code
	}
	return stdhttp.StatusInternalServerError
}
