package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"valetbay/internal/service"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

type StripeHandler struct {
	WebhookSecret string
	Payments      *service.PaymentService
}

func NewStripeHandler(webhookSecret string, payments *service.PaymentService) *StripeHandler {
	return &StripeHandler{WebhookSecret: webhookSecret, Payments: payments}
}

// CreateCheckout starts a checkout session for a booking's price.
func (h *StripeHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	requesterID, role := requesterOrGuest(r)

	url, err := h.Payments.CreateCheckout(id, requesterID, role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"checkout_url": url})
}

func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading body: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.WebhookSecret)
	if err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.expired":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			log.Printf("Error parsing checkout.session: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if sess.ID == "" {
			log.Printf("No session ID in %s", event.Type)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		paid := event.Type == "checkout.session.completed"
		if _, err := h.Payments.HandleCheckoutResult(sess.ID, paid); err != nil {
			log.Printf("Error recording checkout result: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	default:
		log.Printf("Unhandled event type: %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}
