package payment

import (
	"fmt"
	"math/rand"
	"strings"

	"pdv-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Authorization: resultado devolvido por um gateway.
type Authorization struct {
	Approved          bool
	AuthorizationCode string
	CardBrand         string
	PixTxID           string
	PixCopyCode       string
}

// Gateway é a costura para um adquirente de verdade. Hoje só existem as
// simulações; um adaptador real entra aqui sem mexer nos handlers.
type Gateway interface {
	Name() string
	Authorize(method models.PaymentMethod, amount decimal.Decimal) (*Authorization, error)
}

var cardBrands = []string{"VISA", "MASTERCARD", "ELO", "HIPERCARD", "AMEX"}

// SimulatedCardGateway aprova ~90% das transações com código e bandeira
// aleatórios. Sem contrato real de adquirente para preservar.
type SimulatedCardGateway struct{}

func (SimulatedCardGateway) Name() string { return "cartao_simulado" }

func (SimulatedCardGateway) Authorize(method models.PaymentMethod, amount decimal.Decimal) (*Authorization, error) {
	if method != models.PaymentCredit && method != models.PaymentDebit {
		return nil, fmt.Errorf("método %s não é de cartão", method)
	}

	if rand.Intn(10) == 0 {
		return &Authorization{Approved: false}, nil
	}

	return &Authorization{
		Approved:          true,
		AuthorizationCode: fmt.Sprintf("%06d", rand.Intn(1000000)),
		CardBrand:         cardBrands[rand.Intn(len(cardBrands))],
	}, nil
}

// SimulatedPixGateway aprova sempre: o "pagamento" é o cliente lendo o
// QR na frente do operador.
type SimulatedPixGateway struct{}

func (SimulatedPixGateway) Name() string { return "pix_simulado" }

func (SimulatedPixGateway) Authorize(method models.PaymentMethod, amount decimal.Decimal) (*Authorization, error) {
	if method != models.PaymentPix {
		return nil, fmt.Errorf("método %s não é PIX", method)
	}

	txid := strings.ReplaceAll(uuid.NewString(), "-", "")
	return &Authorization{
		Approved:          true,
		AuthorizationCode: fmt.Sprintf("%06d", rand.Intn(1000000)),
		PixTxID:           txid,
		PixCopyCode:       fmt.Sprintf("00020126PIX%s5204000053039865802BR%s", txid, amount.StringFixed(2)),
	}, nil
}

// ForMethod escolhe o gateway do método; DINHEIRO não passa por gateway.
func ForMethod(method models.PaymentMethod) (Gateway, error) {
	switch method {
	case models.PaymentCredit, models.PaymentDebit:
		return SimulatedCardGateway{}, nil
	case models.PaymentPix:
		return SimulatedPixGateway{}, nil
	default:
		return nil, fmt.Errorf("método %s não usa gateway", method)
	}
}
