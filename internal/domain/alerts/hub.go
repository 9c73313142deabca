package alerts

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"medidispense/internal/platform/logger"
	"medidispense/internal/platform/metrics"
)

// Publisher entrega una alerta a un destino externo (webhook, broker...).
type Publisher interface {
	Publish(ctx context.Context, a Alert) error
}

// Hub reparte cada alerta a callbacks en proceso, a los streams abiertos
// y a los sinks configurados.
type Hub struct {
	mu        sync.RWMutex
	nextID    int
	callbacks map[int]func(Alert)
	streams   map[int]chan Alert
	sinks     []Publisher

	log logger.Logger
}

func NewHub(l logger.Logger) *Hub {
	if l == nil {
		l = logger.Nop()
	}
	return &Hub{
		callbacks: make(map[int]func(Alert)),
		streams:   make(map[int]chan Alert),
		log:       l.With(map[string]any{"component": "alerts"}),
	}
}

// OnDoseAlert registra fn; la func devuelta la da de baja.
// fn corre en la goroutine del monitor: no debe bloquear.
func (h *Hub) OnDoseAlert(fn func(Alert)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.callbacks[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.callbacks, id)
			h.mu.Unlock()
		})
	}
}

// Subscribe abre un stream con buffer. Si el consumidor se atrasa y el
// buffer está lleno, la alerta se descarta para ese stream.
func (h *Hub) Subscribe(buffer int) (<-chan Alert, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Alert, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.streams[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.streams, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) AddSink(p Publisher) {
	h.mu.Lock()
	h.sinks = append(h.sinks, p)
	h.mu.Unlock()
}

// Publish entrega a todos los destinos. Los errores de sinks se juntan y se
// devuelven; el resto de destinos recibe la alerta igual.
func (h *Hub) Publish(ctx context.Context, a Alert) error {
	h.mu.RLock()
	callbacks := make([]func(Alert), 0, len(h.callbacks))
	for _, fn := range h.callbacks {
		callbacks = append(callbacks, fn)
	}
	sinks := append([]Publisher(nil), h.sinks...)

	for id, ch := range h.streams {
		select {
		case ch <- a:
		default:
			h.log.Warn("alert stream full, dropping", map[string]any{
				"stream":     id,
				"patient_id": a.PatientID,
			})
		}
	}
	h.mu.RUnlock()

	metrics.RecordAlert()
	h.log.Info("medicine alert", map[string]any{
		"patient_id": a.PatientID,
		"room":       a.Room,
		"time":       a.Time,
	})

	for _, fn := range callbacks {
		fn(a)
	}

	var errs []error
	for _, s := range sinks {
		if err := s.Publish(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("alerts: publish: %w", errors.Join(errs...))
	}
	return nil
}
