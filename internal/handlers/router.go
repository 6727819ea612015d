package handlers

import (
	"github.com/go-chi/chi/v5"
)

// WalletService is the wallet surface exposed over HTTP.
type WalletService interface {
	WalletOpener
	WalletReader
	EarningsLister
	WalletWithdrawer
	PaymentMethodAttacher
}

// SettlementService is the settlement surface exposed over HTTP.
type SettlementService interface {
	OfferAcceptor
	OrderReader
	DeliveryAcceptor
	CancellationRequester
	CancellationAcceptor
	CancellationRejecter
	SubscriptionPaymentRecorder
}

// RegisterRoutes mounts the settlement API on r. Authentication is left to
// the middleware installed on r.
func RegisterRoutes(r chi.Router, wallets WalletService, settlement SettlementService, rates RateResolver, sweeper Sweeper) {
	r.Route("/wallet", func(r chi.Router) {
		r.Get("/", NewGetBalanceHandler(wallets))
		r.Post("/", NewOpenWalletHandler(wallets))
		r.Get("/earnings", NewListEarningsHandler(wallets))
		r.Post("/withdraw", NewWithdrawHandler(wallets))
		r.Post("/payment-method", NewAttachPaymentMethodHandler(wallets))
	})

	r.Get("/rates/{currency}", NewGetExchangeRateHandler(rates))

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", NewAcceptOfferHandler(settlement))
		r.Get("/{orderID}", NewGetOrderHandler(settlement))
		r.Post("/{orderID}/delivery/accept", NewAcceptDeliveryHandler(settlement))
		r.Post("/{orderID}/cancellations", NewRequestCancellationHandler(settlement))
	})

	r.Route("/cancellations/{cancelID}", func(r chi.Router) {
		r.Post("/accept", NewAcceptCancellationHandler(settlement))
		r.Post("/reject", NewRejectCancellationHandler(settlement))
	})

	r.Route("/internal", func(r chi.Router) {
		r.Post("/sweeps", NewSweepHandler(sweeper))
		r.Post("/orders/{orderID}/subscription-payments", NewSubscriptionPaymentHandler(settlement))
	})
}
