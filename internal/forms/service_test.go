package forms

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascend-backend/internal/notify"
)

type fakeSender struct {
	sent []notify.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg notify.Message) (notify.Receipt, error) {
	f.sent = append(f.sent, msg)
	if f.err != nil {
		return notify.Receipt{}, f.err
	}
	return notify.Receipt{ID: "email-9"}, nil
}

func newService(sender notify.Sender) *Service {
	return &Service{Sender: sender, From: "Ascend Website <onboarding@resend.dev>", To: "office@ascend.example"}
}

func TestSubmitQuoteWithoutSender(t *testing.T) {
	res := newService(nil).SubmitQuote(context.Background(), QuoteRequest{Name: "Pat"})
	assert.True(t, res.Simulated)
}

func TestSubmitQuoteForwards(t *testing.T) {
	sender := &fakeSender{}
	res := newService(sender).SubmitQuote(context.Background(), QuoteRequest{
		Name:    "Pat <b>",
		Phone:   "0400",
		Email:   " pat@example.com ",
		Service: "Re-roof",
		Message: "Tiles & gutters",
	})
	require.NotNil(t, res.Receipt)
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "New Quote Request: Pat <b>", msg.Subject)
	assert.Equal(t, "pat@example.com", msg.ReplyTo)
	assert.Contains(t, msg.HTML, "Pat &lt;b&gt;")
	assert.Contains(t, msg.HTML, "Tiles &amp; gutters")
}

func TestSubmitColourDefaultsAndTypedSignature(t *testing.T) {
	sender := &fakeSender{}
	res, err := newService(sender).SubmitColour(context.Background(), ColourConfirmation{
		FirstName:  "Lee",
		LastName:   "O'Neil",
		JobAddress: "4 Ridge Rd",
		RoofColour: "Monument",
		Signature:  "Typed: Lee <O'Neil>",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Receipt)
	assert.Equal(t, "email-9", res.Receipt.ID)

	msg := sender.sent[0]
	assert.Equal(t, "Colour Confirmation: Lee O'Neil — 4 Ridge Rd", msg.Subject)
	assert.Contains(t, msg.HTML, "O&#x27;Neil")
	assert.Contains(t, msg.HTML, "Monument")
	assert.Equal(t, 2, strings.Count(msg.HTML, notSelected))
	assert.Contains(t, msg.HTML, "Typed: Lee &lt;O&#x27;Neil&gt;")
	assert.NotContains(t, msg.HTML, "<img")
}

func TestSubmitColourDrawnSignature(t *testing.T) {
	sender := &fakeSender{}
	sig := "data:image/png;base64,iVBORw0KGgo="
	_, err := newService(sender).SubmitColour(context.Background(), ColourConfirmation{FirstName: "Lee", Signature: sig})
	require.NoError(t, err)
	assert.Contains(t, sender.sent[0].HTML, `<img src="`+sig+`"`)
}

func TestSubmitColourRejectsScriptedSignature(t *testing.T) {
	sender := &fakeSender{}
	_, err := newService(sender).SubmitColour(context.Background(), ColourConfirmation{
		FirstName: "Lee",
		Signature: `data:image/png;base64,AAAA" onerror="alert(1)`,
	})
	require.NoError(t, err)
	html := sender.sent[0].HTML
	assert.NotContains(t, html, "<img")
	assert.NotContains(t, html, "onerror")
	assert.Contains(t, html, "[Drawn Signature - see image below]")
}

func TestSubmitColourSimulated(t *testing.T) {
	res, err := newService(nil).SubmitColour(context.Background(), ColourConfirmation{FirstName: "Lee"})
	require.NoError(t, err)
	assert.True(t, res.Simulated)
}

func TestSubmitColourRequiresName(t *testing.T) {
	sender := &fakeSender{}
	_, err := newService(sender).SubmitColour(context.Background(), ColourConfirmation{FirstName: "  "})
	assert.ErrorIs(t, err, ErrInvalidSubmission)
	assert.Empty(t, sender.sent)
}

func TestSubmitColourDeliveryFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp: 550 mailbox unavailable")}
	res, err := newService(sender).SubmitColour(context.Background(), ColourConfirmation{FirstName: "Lee"})
	require.NoError(t, err)
	assert.EqualError(t, res.EmailError, "smtp: 550 mailbox unavailable")
}
