package payment

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jhoicas/reservas-api/internal/application/ports"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
)

var _ ports.PaymentProvider = (*MockProvider)(nil)

// Mensajes fijos del proveedor.
const (
	MsgSimulatedFailure = "simulated_failure"
	MsgOK               = "ok"
	MsgCreated          = "created"
)

// MockProvider proveedor determinista para desarrollo y tests: aprueba todo cobro salvo
// que la solicitud pida una falla simulada.
type MockProvider struct {
	seq atomic.Uint64
	now func() time.Time
}

// NewMockProvider construye el proveedor simulado.
func NewMockProvider() *MockProvider {
	return &MockProvider{now: time.Now}
}

// Charge devuelve un id "mockpay_<unixms>_<n>" único dentro del proceso.
func (p *MockProvider) Charge(_ context.Context, req ports.ChargeRequest) entity.PaymentResult {
	if req.SimulateFailure {
		return entity.PaymentResult{Success: false, Message: MsgSimulatedFailure}
	}
	id := fmt.Sprintf("mockpay_%d_%d", p.now().UnixMilli(), p.seq.Add(1))
	return entity.PaymentResult{Success: true, ID: id, Message: MsgOK}
}
