package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
)

// Routes registers the API endpoints on a mux. Split out so tests can drive
// the full routing without a listening socket.
func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/invite/redeem", a.ErrorMiddleware(a.CORSMiddleware(a.LoggingMiddleware(a.RedeemInviteHandler))))
	mux.HandleFunc("/invite/status", a.ErrorMiddleware(a.CORSMiddleware(a.LoggingMiddleware(a.InviteStatusHandler))))
	mux.HandleFunc("/domains", a.ErrorMiddleware(a.CORSMiddleware(a.LoggingMiddleware(a.DomainsHandler))))

	// Admin endpoints
	mux.HandleFunc("/admin/invite", a.ErrorMiddleware(a.CORSMiddleware(a.JWTMiddleware(a.LoggingMiddleware(a.CreateInviteHandler)))))

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// newServer builds the HTTP server. The write timeout must outlast two
// worst-case confirmation waits plus handler and database work, since a
// payout blocks the response on both legs settling.
func (a *API) newServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", viper.GetInt("api_port")),
		Handler:      a.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// StartServer starts the HTTP (or HTTPS) API server
func (a *API) StartServer() error {
	server := a.newServer()

	if viper.GetBool("use_https") {
		log.Printf("Starting HTTPS server on %s", server.Addr)
		return server.ListenAndServeTLS(viper.GetString("cert_file"), viper.GetString("key_file"))
	}

	log.Printf("Starting HTTP server on %s", server.Addr)
	return server.ListenAndServe()
}
