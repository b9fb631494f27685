// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

/*
Package payments orchestrates checkout with external payment providers
and applies the results to subscriptions and reservations.

# Flow

	StartSubscriptionCheckout / StartReservationCheckout
	        |
	        v
	Provider.CreateCheckout ----> provider-hosted payment page
	        |
	        v
	PaymentTransaction + Subscription rows in `initiated`
	        |
	        +--- webhook (signature-verified) ---+
	        |                                    v
	        +--- status poll (success page) --> Finalize
	                                             |
	                                             v
	                            paid: activate subscription + upgrade
	                            plan, or confirm reservation; publish
	                            payment.completed

Finalize is idempotent: the status-guarded transition on the payment
transaction elects one winner between the webhook and the poll path,
and only the winner runs side effects.

# Providers

Stripe uses Checkout Sessions; PayPal uses the Orders API with intent
CAPTURE, capturing on the status poll after payer approval. Both are
wrapped in circuit breakers so a dead processor fails fast.
*/
package payments
