package models

// Reaction is a single like or dislike cast on an idea.
type Reaction string

const (
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

// Opposite returns the other reaction.
func (r Reaction) Opposite() Reaction {
	if r == ReactionLike {
		return ReactionDislike
	}
	return ReactionLike
}

// ActorVotes is what one actor has contributed, keyed by idea id.
type ActorVotes struct {
	Ratings   map[string]float64  `json:"ratings,omitempty"`
	Reactions map[string]Reaction `json:"reactions,omitempty"`
}

// VoteLedger maps actor ids to their votes.
type VoteLedger map[string]ActorVotes

// Clone deep-copies the ledger.
func (l VoteLedger) Clone() VoteLedger {
	out := make(VoteLedger, len(l))
	for actorID, votes := range l {
		out[actorID] = votes.Clone()
	}
	return out
}

// Clone deep-copies the actor's votes.
func (v ActorVotes) Clone() ActorVotes {
	out := ActorVotes{}
	if len(v.Ratings) > 0 {
		out.Ratings = make(map[string]float64, len(v.Ratings))
		for ideaID, rating := range v.Ratings {
			out.Ratings[ideaID] = rating
		}
	}
	if len(v.Reactions) > 0 {
		out.Reactions = make(map[string]Reaction, len(v.Reactions))
		for ideaID, reaction := range v.Reactions {
			out.Reactions[ideaID] = reaction
		}
	}
	return out
}

// Empty reports whether the actor has no recorded votes.
func (v ActorVotes) Empty() bool {
	return len(v.Ratings) == 0 && len(v.Reactions) == 0
}
