package handlers

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/kova98/gigscout.api/models"
	"github.com/kova98/gigscout.api/notifiers"
)

const maxFeedbackLength = 5000

type FeedbackHandler struct {
	sender notifiers.Sender
	from   string
	to     string
}

func NewFeedbackHandler(sender notifiers.Sender, from, to string) *FeedbackHandler {
	return &FeedbackHandler{sender: sender, from: from, to: to}
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
}

func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) Result {
	user := currentUser(r)

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return BadRequest("Invalid request.")
	}

	feedback := strings.TrimSpace(req.Feedback)
	if feedback == "" {
		return BadRequest("Feedback is required.")
	}
	if len(feedback) > maxFeedbackLength {
		return BadRequest(fmt.Sprintf("Feedback must be at most %d characters.", maxFeedbackLength))
	}

	email := models.Email{
		From:    h.from,
		ReplyTo: user.Email,
		To:      h.to,
		Subject: "GigScout feedback",
		Body: fmt.Sprintf("<strong>From:</strong> %s<br/><br/>%s",
			html.EscapeString(user.Email), html.EscapeString(feedback)),
	}

	if _, err := h.sender.Send(r.Context(), email); err != nil {
		return InternalError(err, "send feedback email")
	}

	return Ok(nil)
}
