// Package demo provides the sample conversations shown when no mail source
// is configured.
package demo

import (
	"context"

	"github.com/nhle/inbox/internal/model"
)

// Source returns a fixed set of sample messages. They carry no external id,
// so importing twice duplicates them; callers import demo data only into a
// fresh store.
type Source struct{}

func (Source) Name() string { return "demo" }

// Fetch returns the sample messages oldest first.
func (Source) Fetch(context.Context) ([]model.Message, error) {
	msgs := Messages()
	out := make([]model.Message, len(msgs))
	for i, m := range msgs {
		out[len(msgs)-1-i] = m
	}
	return out, nil
}

// Messages returns the sample messages most recent first.
func Messages() []model.Message {
	return []model.Message{
		{
			Sender:    "Sarah Chen",
			Subject:   "Q3 roadmap review moved to Thursday",
			Body:      "Hi team, the Q3 roadmap review has moved to Thursday at 2pm because of the offsite. Please update your slides by Wednesday evening and flag any blockers before then.",
			Timestamp: "10:42 AM",
			Channel:   model.ChannelBusiness,
			Avatar:    "https://i.pravatar.cc/40?u=sarah",
			Replies: []model.Reply{
				{
					Sender:    "Sarah Chen",
					Body:      "Here is the draft agenda.",
					Timestamp: "10:45 AM",
					Avatar:    "https://i.pravatar.cc/40?u=sarah",
					Attachment: &model.Attachment{
						Name: "q3-roadmap-agenda.pdf",
						Size: 248_320,
					},
				},
			},
		},
		{
			Sender:    "Mom",
			Subject:   "Sunday dinner",
			Body:      "Are you still coming over on Sunday? Dad is making lasagna. Bring a jacket, it's supposed to get cold.",
			Timestamp: "9:15 AM",
			Channel:   model.ChannelPersonal,
			Avatar:    "https://i.pravatar.cc/40?u=mom",
		},
		{
			Sender:    "Billing Department",
			Subject:   "Invoice #4821 is overdue",
			Body:      "Our records show that invoice #4821 for $1,250.00 was due on the 1st. Please arrange payment within 7 days to avoid a late fee.",
			Timestamp: "Yesterday",
			Channel:   model.ChannelBusiness,
			Avatar:    "https://i.pravatar.cc/40?u=billing",
		},
		{
			Sender:    "Lucía Fernández",
			Subject:   "¿Nos vemos el sábado?",
			Body:      "¡Hola! Voy a estar en la ciudad el fin de semana. ¿Te apetece tomar un café el sábado por la mañana?",
			Timestamp: "Yesterday",
			Channel:   model.ChannelPersonal,
			Avatar:    "https://i.pravatar.cc/40?u=lucia",
			Read:      true,
		},
		{
			Sender:    "DevOps Alerts",
			Subject:   "Disk usage above 90% on db-primary",
			Body:      "Volume /var/lib/postgres on db-primary reached 92% utilization. Consider expanding the volume or pruning old WAL segments.",
			Timestamp: "Mon",
			Channel:   model.ChannelBusiness,
			Avatar:    "https://i.pravatar.cc/40?u=devops",
			Read:      true,
			Replies: []model.Reply{
				{
					Sender:    "Me",
					Body:      "Pruned the WAL archive, usage is back to 61%.",
					Timestamp: "Mon",
					Avatar:    "https://i.pravatar.cc/40?u=me",
				},
			},
		},
		{
			Sender:    "Alex Rivera",
			Subject:   "Photos from the hike",
			Body:      "Finally uploaded the photos from last weekend. The one at the summit came out great!",
			Timestamp: "Sun",
			Channel:   model.ChannelPersonal,
			Avatar:    "https://i.pravatar.cc/40?u=alex",
			Replies: []model.Reply{
				{
					Sender:    "Alex Rivera",
					Body:      "Zipped them up for you.",
					Timestamp: "Sun",
					Avatar:    "https://i.pravatar.cc/40?u=alex",
					Attachment: &model.Attachment{
						Name: "hike-photos.zip",
						Size: 18_874_368,
					},
				},
			},
		},
	}
}
