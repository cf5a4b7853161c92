package orders

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"scentiva/mq"
	"scentiva/utils"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans order events out to websocket subscribers, keyed by order id.
// The storefront uses it to show live "your order is now shipped" updates.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*websocket.Conn]bool)}
}

// Run pumps the Redis order-event channel into connected sockets until
// ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for ev := range mq.SubscribeOrderEvents(ctx) {
		h.broadcast(ev)
	}
}

func (h *Hub) broadcast(ev mq.OrderEvent) {
	h.mu.RLock()
	conns := h.conns[ev.OrderID]
	h.mu.RUnlock()

	for conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(ev); err != nil {
			log.Printf("orders: ws write for %s: %v", ev.OrderID, err)
			h.unregister(ev.OrderID, conn)
			conn.Close()
		}
	}
}

func (h *Hub) register(orderID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[orderID] == nil {
		h.conns[orderID] = make(map[*websocket.Conn]bool)
	}
	h.conns[orderID][conn] = true
}

func (h *Hub) unregister(orderID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[orderID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, orderID)
		}
	}
}

// Updates upgrades the connection and streams status changes for one
// order to its owner (or an admin).
// GET /api/orders/order/:orderid/updates
func (h *Handlers) Updates(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		orderID := ps.ByName("orderid")
		order, err := h.Svc.Orders.FindByID(ctx, orderID)
		if err != nil {
			utils.RespondWithError(w, http.StatusNotFound, ErrNotFound.Error())
			return
		}
		if order.UserID != utils.GetUserIDFromRequest(r) && !utils.IsAdminRequest(r) {
			utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("orders: ws upgrade:", err)
			return
		}

		hub.register(orderID, conn)
		defer func() {
			hub.unregister(orderID, conn)
			conn.Close()
		}()

		// Read pump: we send only; reads detect the client going away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
