// Copyright 2026 Quellwerk Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package escalation decides when a conversation must be handed to a
// human and produces the ticket that carries the handoff.
package escalation

import (
	"strings"

	"github.com/quellwerk/concierge/core"
	"github.com/quellwerk/concierge/tenant"
)

// sentimentCutoff is the sentiment score below which a message counts as
// emotionally negative enough to escalate. Sentiment is in [-1, 1].
const sentimentCutoff = -0.3

// hedgingMarkers flag generated answers that admit not knowing. A poorly
// grounded answer escalates only when it asserts something anyway; a
// hedged answer already signals uncertainty to the customer.
var hedgingMarkers = []string{
	"ich bin mir nicht sicher",
	"ich weiß es leider nicht",
	"leider kann ich ihnen dazu",
	"dazu liegen mir keine informationen",
	"wenden sie sich bitte an",
	"i'm not sure",
	"i am not sure",
	"i don't know",
	"i cannot help with",
}

// Signal carries the per-turn inputs to the escalation decision.
type Signal struct {
	// Message is the customer's message for this turn.
	Message string
	// Answer is the generated response, checked for hedging.
	Answer string
	// Confidence is the derived answer confidence in [0, 1].
	Confidence float64
	// Sentiment is the message sentiment in [-1, 1]; 0 means unknown.
	Sentiment float64
}

// Evaluate scores one exchange against the tenant's escalation rules.
// Rules apply in fixed priority order: keyword, low confidence, negative
// sentiment. The same inputs always produce the same verdict.
func Evaluate(t *tenant.Tenant, sig Signal) core.EscalationVerdict {
	if keyword, hit := t.HasKeyword(sig.Message); hit {
		return core.EscalationVerdict{
			Required:      true,
			Reason:        core.ReasonKeyword,
			Score:         1.0,
			TriggeredRule: keyword,
		}
	}

	if sig.Confidence < t.EscalationThreshold {
		if _, hedged := hasHedgingMarker(sig.Answer); !hedged {
			return core.EscalationVerdict{
				Required:      true,
				Reason:        core.ReasonLowConfidence,
				Score:         1.0 - sig.Confidence,
				TriggeredRule: "unhedged claim below confidence threshold",
			}
		}
	}

	if sig.Sentiment < sentimentCutoff {
		return core.EscalationVerdict{
			Required:      true,
			Reason:        core.ReasonSentiment,
			Score:         -sig.Sentiment,
			TriggeredRule: "negative sentiment",
		}
	}

	return core.EscalationVerdict{}
}

func hasHedgingMarker(answer string) (string, bool) {
	lower := strings.ToLower(answer)
	for _, marker := range hedgingMarkers {
		if strings.Contains(lower, marker) {
			return marker, true
		}
	}
	return "", false
}
