// Package webserver contains the HTTP interface of the service. It serves
// the current artwork and its metadata from the cache store and accepts an
// authenticated command for triggering an out-of-band resync. It is meant
// to be bound to localhost and reached over a secure tunnel.
package webserver

import (
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/mpdart/mpdart/src/cache"
	"github.com/mpdart/mpdart/src/config"
	"github.com/mpdart/mpdart/src/history"
)

// Resyncer is the server's handle on the sync loop. Calling Resync must
// never block.
type Resyncer interface {
	Resync()
}

// Historian lists recently recorded sync events.
type Historian interface {
	Recent(limit int) ([]history.Event, error)
}

// Server represents our webserver. It will be controlled from here.
type Server struct {

	// Configuration of this server
	cfg config.Config

	// WG used in Server.Wait to sync with the server's end
	wg sync.WaitGroup

	// Makes sure Serve does not return before all the starting work has
	// been finished
	startWG sync.WaitGroup

	// The actual http.Server doing the HTTP work
	httpSrv *http.Server

	// The server's net.Listener. Used in the Server.Stop func
	listener net.Listener

	store   *cache.Store
	loop    Resyncer
	journal Historian
}

// Serve actually starts the webserver. It attaches all the handlers and
// starts listening while consulting the configuration supplied. Trying to
// call this method more than once for the same server will result in a
// panic.
func (srv *Server) Serve() {
	if srv.listener != nil {
		panic("second Server.Serve call for the same server")
	}
	srv.wg.Add(1)
	srv.startWG.Add(1)
	go srv.serveGoroutine()
	srv.startWG.Wait()
}

func (srv *Server) serveGoroutine() {
	defer srv.wg.Done()

	router := mux.NewRouter()
	router.StrictSlash(true)

	router.Handle(
		"/current.jpg",
		NewCurrentImageHandler(srv.store),
	).Methods(http.MethodGet)

	router.Handle(
		"/status.json",
		NewStatusHandler(srv.store),
	).Methods(http.MethodGet)

	router.Handle(
		"/fetch",
		NewFetchHandler(srv.cfg.HTTPToken, srv.loop),
	).Methods(http.MethodPost)

	router.Handle(
		"/qr.png",
		NewQRHandler(srv.cfg.HTTPToken),
	).Methods(http.MethodGet)

	if srv.journal != nil {
		router.Handle(
			"/history.json",
			NewHistoryHandler(srv.cfg.HTTPToken, srv.journal),
		).Methods(http.MethodGet)
	}

	srv.httpSrv = &http.Server{
		Addr:         srv.cfg.Listen,
		Handler:      router,
		ReadTimeout:  time.Duration(srv.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(srv.cfg.WriteTimeout) * time.Second,
	}

	reason := srv.listenAndServe()

	log.Println("Webserver stopped.")

	if reason != nil {
		log.Printf("Reason: %s\n", reason.Error())
	}
}

// listenAndServe uses our own listener to make our server stoppable.
// Similar to net.http.Server.ListenAndServe only this version saves a
// reference to the listener.
func (srv *Server) listenAndServe() error {
	addr := srv.httpSrv.Addr
	if addr == "" {
		addr = ":http"
	}
	lsn, err := net.Listen("tcp", addr)
	if err != nil {
		srv.startWG.Done()
		return err
	}
	srv.listener = lsn
	log.Printf("Webserver started on http://%s\n", addr)
	srv.startWG.Done()
	return srv.httpSrv.Serve(lsn)
}

// Stop stops the webserver.
func (srv *Server) Stop() {
	if srv.listener != nil {
		_ = srv.listener.Close()
		srv.listener = nil
	}
}

// Wait syncs whoever called this with the server's stop.
func (srv *Server) Wait() {
	srv.wg.Wait()
}

// NewServer returns a new Server using the supplied configuration. The
// returned server is ready and calling its Serve method will start it.
// journal may be nil, in which case the history route is not registered.
func NewServer(
	cfg config.Config,
	store *cache.Store,
	loop Resyncer,
	journal Historian,
) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		loop:    loop,
		journal: journal,
	}
}
