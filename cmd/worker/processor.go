package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/go-storefront-api/internal/aws"
	"github.com/imrishuroy/go-storefront-api/internal/checkout"
	"github.com/imrishuroy/go-storefront-api/internal/idempotency"
)

// Processor handles SQS messages and performs checkout lifecycle transitions.
type Processor struct {
	dynamo         aws.DynamoDBAPI
	idempotencyTbl string
	checkoutsTbl   string
	idempStore     *idempotency.Store
	checkoutStore  *checkout.Store
}

// NewProcessor creates a new worker processor with AWS clients injected.
func NewProcessor(clients *aws.AWSClients, idempTable, checkoutsTable string) *Processor {
	return &Processor{
		dynamo:         clients.DynamoDB,
		idempotencyTbl: idempTable,
		checkoutsTbl:   checkoutsTable,
		idempStore:     idempotency.NewStore(clients.DynamoDB, idempTable, 48*time.Hour),
		checkoutStore:  checkout.NewStore(clients.DynamoDB, checkoutsTable),
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			log.Printf("worker error: %v", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg WorkerMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	log.Printf("[worker] received checkout=%s idempotency_key=%s corr=%s",
		msg.CheckoutID, msg.IdempotencyKey, msg.CorrelationID)

	// Step 1: Read the current checkout
	chk, err := p.checkoutStore.Get(ctx, msg.CheckoutID)
	if err != nil {
		return fmt.Errorf("failed to fetch checkout: %w", err)
	}
	if chk == nil {
		// Should never happen; DLQ if it does
		return fmt.Errorf("checkout not found: %s", msg.CheckoutID)
	}

	// Step 2: Move PENDING -> PROCESSING (idempotent)
	err = p.checkoutStore.UpdateStatus(ctx, msg.CheckoutID, checkout.StatusPending, checkout.StatusProcessing)
	if err == checkout.ErrStatusMismatch {
		// Already processed or competing worker:
		// If already COMPLETED -> treat as success.
		// If already FAILED -> fail permanently.
		// If already PROCESSING -> another worker took it, swallow the duplicate.
		c2, _ := p.checkoutStore.Get(ctx, msg.CheckoutID)
		switch c2.Status {
		case checkout.StatusCompleted:
			log.Printf("[worker] already completed checkout=%s", msg.CheckoutID)
			return nil
		case checkout.StatusFailed:
			return fmt.Errorf("checkout=%s is already FAILED", msg.CheckoutID)
		case checkout.StatusProcessing:
			log.Printf("[worker] duplicate processing event for checkout=%s", msg.CheckoutID)
			return nil
		default:
			return fmt.Errorf("unexpected status for checkout=%s: %s", msg.CheckoutID, c2.Status)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to update status to PROCESSING: %w", err)
	}

	if err := p.checkoutStore.IncrementAttempts(ctx, msg.CheckoutID); err != nil {
		log.Printf("[worker] increment attempts failed for checkout=%s: %v", msg.CheckoutID, err)
	}

	// Step 3: Hand off to the downstream processor (simulated for now)
	log.Printf("[worker] handing off checkout=%s amount=%.2f items=%d",
		msg.CheckoutID, chk.Amount, len(chk.Items))
	time.Sleep(200 * time.Millisecond) // simulate downstream call

	// Step 4: Complete checkout: PROCESSING -> COMPLETED
	err = p.checkoutStore.UpdateStatus(ctx, msg.CheckoutID, checkout.StatusProcessing, checkout.StatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to update status to COMPLETED: %w", err)
	}

	// Step 5: Mark idempotency DONE (API created the record)
	response := fmt.Sprintf(`{"checkout_id":"%s","status":"COMPLETED"}`, msg.CheckoutID)
	if err := p.idempStore.MarkDone(ctx, msg.IdempotencyKey, response, 200); err != nil {
		return fmt.Errorf("failed to update idempotency: %w", err)
	}

	log.Printf("[worker] completed checkout=%s", msg.CheckoutID)
	return nil
}
