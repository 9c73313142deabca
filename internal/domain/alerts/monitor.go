package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medidispense/internal/domain/doses"
	"medidispense/internal/domain/history"
	"medidispense/internal/platform/logger"

	"github.com/robfig/cron/v3"
)

const DefaultInterval = 30 * time.Second

// Source es lo que el monitor necesita del engine de dosis.
type Source interface {
	Now() time.Time
	PatientIDs() []string
	Refresh(ctx context.Context, patientID string, now time.Time) (doses.State, error)
}

type MonitorOptions struct {
	Interval time.Duration // <= 0 => DefaultInterval
	Logger   logger.Logger
}

// Monitor revisa periódicamente qué dosis vencen en el minuto actual.
// Cada paciente recibe a lo sumo una alerta por (fecha, horario).
type Monitor struct {
	src      Source
	pub      Publisher
	interval time.Duration
	log      logger.Logger

	mu   sync.Mutex
	last map[string]string // patient id => "fecha horario" ya alertado

	cron *cron.Cron
}

func NewMonitor(src Source, pub Publisher, opts MonitorOptions) *Monitor {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	l := opts.Logger
	if l == nil {
		l = logger.Nop()
	}
	l = l.With(map[string]any{"component": "monitor"})

	cl := cronLogger{log: l}
	return &Monitor{
		src:      src,
		pub:      pub,
		interval: interval,
		log:      l,
		last:     make(map[string]string),
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
}

// Start agenda Tick cada interval. Un tick que todavía corre hace que el
// siguiente se saltee.
func (m *Monitor) Start() error {
	spec := fmt.Sprintf("@every %s", m.interval)
	if _, err := m.cron.AddFunc(spec, func() { m.Tick(context.Background()) }); err != nil {
		return fmt.Errorf("alerts: schedule monitor: %w", err)
	}
	m.cron.Start()
	m.log.Info("monitor started", map[string]any{"interval": m.interval.String()})
	return nil
}

// Stop detiene el cron y espera al tick en curso (o a ctx).
func (m *Monitor) Stop(ctx context.Context) {
	done := m.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	m.log.Info("monitor stopped", nil)
}

// Tick refresca a cada paciente y alerta a los que tienen la dosis ahora.
// Devuelve cuántas alertas se publicaron.
func (m *Monitor) Tick(ctx context.Context) int {
	now := m.src.Now()
	label := now.Format(doses.LabelLayout)
	key := now.Format(history.DateLayout) + " " + label

	sent := 0
	for _, id := range m.src.PatientIDs() {
		st, err := m.src.Refresh(ctx, id, now)
		if err != nil {
			m.log.Warn("refresh failed", map[string]any{"patient_id": id, "error": err})
			continue
		}
		if st.NextDoseTime == nil || *st.NextDoseTime != label {
			continue
		}
		if !m.claim(id, key) {
			continue
		}

		a := Alert{
			PatientID:   st.PatientID,
			PatientName: st.PatientName,
			Room:        st.Room,
			Time:        label,
			Date:        now.Format(history.DateLayout),
			RaisedAt:    now,
		}
		if err := m.pub.Publish(ctx, a); err != nil {
			m.log.Error("alert publish failed", map[string]any{"patient_id": id, "error": err})
		}
		sent++
	}
	return sent
}

// claim marca la alerta como enviada; false si ya se había enviado.
func (m *Monitor) claim(patientID, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last[patientID] == key {
		return false
	}
	m.last[patientID] = key
	return true
}

// cronLogger adapta el logger de la plataforma a cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug("cron: "+msg, kvFields(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	f := kvFields(keysAndValues)
	f["error"] = err
	c.log.Error("cron: "+msg, f)
}

func kvFields(kv []interface{}) map[string]any {
	out := make(map[string]any, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			k = fmt.Sprint(kv[i])
		}
		out[k] = kv[i+1]
	}
	return out
}
