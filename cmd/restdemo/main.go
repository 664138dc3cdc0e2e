// Command restdemo serves a small order API wired through the whole
// toolkit: declarative schemas in both directions, permission gating, a
// resource bundle, environment configuration and graceful shutdown.
//
//	RESTDEMO_ADDR=:8080 go run ./cmd/restdemo
//
//	curl -X POST localhost:8080/orders -H 'X-Demo-Role: staff' \
//	    -d '{"foo": "bar", "bar": 5, "sub": {"x": 20, "y": "hello", "z": 10, "w": 1000}}'
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/declarest/restkit/api"
	"github.com/declarest/restkit/deserializer"
	"github.com/declarest/restkit/permission"
	"github.com/declarest/restkit/serializer"
	"github.com/declarest/restkit/view"
)

///////////////////////////////////////////////////////////////////////////////
// Domain
///////////////////////////////////////////////////////////////////////////////

type SimpleObject struct {
	W int
	X int
	Y string
	Z int
}

type ComplexObject struct {
	ID   uuid.UUID
	Foo  string
	Bar  int
	Sub  SimpleObject
	Subs []SimpleObject
}

// orderStore is the demo's in-memory storage.
type orderStore struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]ComplexObject
}

func newOrderStore() *orderStore {
	return &orderStore{orders: make(map[uuid.UUID]ComplexObject)}
}

func (s *orderStore) put(order ComplexObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
}

func (s *orderStore) get(id uuid.UUID) (ComplexObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[id]
	return order, ok
}

func (s *orderStore) remove(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return false
	}
	delete(s.orders, id)
	return true
}

func (s *orderStore) all() []ComplexObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := make([]ComplexObject, 0, len(s.orders))
	for _, order := range s.orders {
		orders = append(orders, order)
	}
	return orders
}

///////////////////////////////////////////////////////////////////////////////
// Schemas
///////////////////////////////////////////////////////////////////////////////

type orderViews struct{}

// GetX backs the "x" method field.
func (orderViews) GetX(obj SimpleObject) int { return obj.X + 10 }

var simpleOut = serializer.MustCompile(serializer.Spec{
	Fields: serializer.Fields{
		"w": serializer.Int(),
		"x": serializer.Method(),
		"y": serializer.Text(),
		"z": serializer.Int(),
	},
	Methods: orderViews{},
})

var orderOut = serializer.MustCompile(serializer.Spec{
	Fields: serializer.Fields{
		"id":   serializer.UUID(),
		"foo":  serializer.Text(),
		"bar":  serializer.Int(),
		"sub":  serializer.Nested(simpleOut),
		"subs": serializer.Nested(simpleOut, serializer.Many()),
	},
})

var simpleIn = deserializer.MustCompile(deserializer.Spec{Fields: deserializer.Fields{
	"w": deserializer.Int(),
	"x": deserializer.Int(),
	"y": deserializer.Text(),
	"z": deserializer.Int(),
}})

var orderIn = deserializer.MustCompile(deserializer.Spec{Fields: deserializer.Fields{
	"foo": deserializer.Text(),
	"bar": deserializer.Int(),
	"sub": deserializer.Nested(simpleIn),
}})

// orderFromData rebuilds the domain object from a validated payload.
func orderFromData(data map[string]any) ComplexObject {
	raw := data["sub"].(map[string]any)
	sub := SimpleObject{
		W: int(raw["w"].(int64)),
		X: int(raw["x"].(int64)),
		Y: raw["y"].(string),
		Z: int(raw["z"].(int64)),
	}
	subs := make([]SimpleObject, 10)
	for i := 0; i < len(subs); i++ {
		subs[i] = sub
	}
	return ComplexObject{
		Foo:  data["foo"].(string),
		Bar:  int(data["bar"].(int64)),
		Sub:  sub,
		Subs: subs,
	}
}

///////////////////////////////////////////////////////////////////////////////
// Views
///////////////////////////////////////////////////////////////////////////////

// ordersCollection bundles the collection verbs: GET lists, POST creates.
type ordersCollection struct {
	store *orderStore
}

func (c *ordersCollection) Get(r *http.Request, in view.Input) (*api.Response, error) {
	out, err := orderOut.SerializeMany(c.store.all())
	if err != nil {
		return nil, err
	}
	return api.OK(out), nil
}

func (c *ordersCollection) Post(r *http.Request, in view.Input) (*api.Response, error) {
	order := orderFromData(in.Data)
	order.ID = uuid.New()
	c.store.put(order)

	out, err := orderOut.Serialize(order)
	if err != nil {
		return nil, err
	}
	return api.Created(out), nil
}

type orderResource struct {
	store *orderStore
}

func (o *orderResource) show(r *http.Request, in view.Input) (*api.Response, error) {
	order, ok := o.lookup(in)
	if !ok {
		return nil, api.NotFound().WithMessage("No such order.")
	}
	out, err := orderOut.Serialize(order)
	if err != nil {
		return nil, err
	}
	return api.OK(out), nil
}

func (o *orderResource) destroy(r *http.Request, in view.Input) (*api.Response, error) {
	order, ok := o.lookup(in)
	if !ok {
		return nil, api.NotFound().WithMessage("No such order.")
	}
	o.store.remove(order.ID)
	return api.NoContent(), nil
}

func (o *orderResource) lookup(in view.Input) (ComplexObject, bool) {
	id, err := uuid.Parse(in.URLParams["id"])
	if err != nil {
		return ComplexObject{}, false
	}
	return o.store.get(id)
}

///////////////////////////////////////////////////////////////////////////////
// Identity
///////////////////////////////////////////////////////////////////////////////

type demoUser struct {
	staff     bool
	superuser bool
}

func (demoUser) IsAuthenticated() bool { return true }
func (u demoUser) IsStaff() bool       { return u.staff }
func (u demoUser) IsSuperuser() bool   { return u.superuser }

var _ permission.UserInfo = demoUser{}

// userFromRequest trusts the X-Demo-Role header. A real deployment resolves
// sessions or tokens here instead.
func userFromRequest(r *http.Request) permission.UserInfo {
	switch r.Header.Get("X-Demo-Role") {
	case "":
		return nil
	case "admin":
		return demoUser{staff: true, superuser: true}
	case "staff":
		return demoUser{staff: true}
	default:
		return demoUser{}
	}
}

///////////////////////////////////////////////////////////////////////////////
// Server
///////////////////////////////////////////////////////////////////////////////

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	addr := os.Getenv("RESTDEMO_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	store := newOrderStore()
	resource := &orderResource{store: store}

	mux := http.NewServeMux()
	mux.Handle("/orders", view.MustWrapBundle(&ordersCollection{store: store}, view.Config{
		Permission: permission.IsAuthenticatedOrReadOnly,
		Schema:     orderIn,
		User:       userFromRequest,
		Logger:     logger,
	}))
	mux.Handle("GET /orders/{id}", view.MustWrap(resource.show, view.Config{
		Methods: []string{http.MethodGet},
		User:    userFromRequest,
		Logger:  logger,
	}))
	mux.Handle("DELETE /orders/{id}", view.MustWrap(resource.destroy, view.Config{
		Permission: permission.IsAdmin,
		Methods:    []string{http.MethodDelete},
		User:       userFromRequest,
		Logger:     logger,
	}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
