// internal/adapters/in/http/storefront/handler/catalog_handler.go
package storefrontHandler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/text/language"

	usecase "storefront/internal/application/usecase"
	productdom "storefront/internal/domain/product"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
)

// CatalogHandler serves
//
//	GET /products
//	GET /products/{id}
//	GET /products/stream   (websocket, pushes the catalog on every change)
type CatalogHandler struct {
	uc       *usecase.CatalogUsecase
	upgrader websocket.Upgrader
}

func NewCatalogHandler(uc *usecase.CatalogUsecase, checkOrigin func(r *http.Request) bool) http.Handler {
	return &CatalogHandler{
		uc: uc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "catalog handler is not configured")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	tag := usecase.MatchLanguage(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
	w.Header().Set("Content-Language", tag.String())

	seg := splitPath(r.URL.Path, "/products")
	switch {
	case len(seg) == 0:
		h.list(w, r, tag)
	case len(seg) == 1 && seg[0] == "stream":
		h.stream(w, r, tag)
	case len(seg) == 1:
		h.get(w, r, seg[0], tag)
	default:
		notFound(w)
	}
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request, tag language.Tag) {
	ps, err := h.uc.List(r.Context())
	if err != nil {
		writeUsecaseErr(w, "catalog_handler", err)
		return
	}
	writeJSON(w, http.StatusOK, views(ps, tag))
}

func (h *CatalogHandler) get(w http.ResponseWriter, r *http.Request, id string, tag language.Tag) {
	p, err := h.uc.Get(r.Context(), id)
	if err != nil {
		writeUsecaseErr(w, "catalog_handler", err)
		return
	}
	writeJSON(w, http.StatusOK, usecase.LocalizedView(p, tag))
}

// stream upgrades to websocket and pushes the localized catalog: the current value first,
// then every change. The client only needs to answer pings.
func (h *CatalogHandler) stream(w http.ResponseWriter, r *http.Request, tag language.Tag) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[catalog_handler] websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates, err := h.uc.Subscribe(ctx)
	if err != nil {
		log.Printf("[catalog_handler] subscribe failed: %v", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(streamWriteWait))
		return
	}

	// read pump: keeps pong deadlines and notices the client going away
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer cancel()

		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[catalog_handler] websocket read error: %v", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ps, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(streamWriteWait))
				cancel()
				_ = conn.Close()
				<-readDone
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(views(ps, tag)); err != nil {
				cancel()
				_ = conn.Close()
				<-readDone
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cancel()
				_ = conn.Close()
				<-readDone
				return
			}
		case <-ctx.Done():
			_ = conn.Close()
			<-readDone
			return
		}
	}
}

func views(ps []productdom.Product, tag language.Tag) []usecase.ProductView {
	out := make([]usecase.ProductView, 0, len(ps))
	for _, p := range ps {
		out = append(out, usecase.LocalizedView(p, tag))
	}
	return out
}

// SameOriginOrAllowed builds the websocket origin check from the CORS origin list.
func SameOriginOrAllowed(allowed []string) func(r *http.Request) bool {
	set := map[string]bool{}
	for _, o := range allowed {
		if o = strings.TrimSpace(o); o != "" {
			set[o] = true
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(set) == 0 || set["*"] {
			return true
		}
		return set[origin]
	}
}
