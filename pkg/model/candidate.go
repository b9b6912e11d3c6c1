package model

// RetrievalCandidate is a transient retrieval result. Score is cosine
// similarity in [-1, 1]. Rank is 0-based, assigned by the index in
// score-descending order with ties broken by RecordID ascending.
type RetrievalCandidate struct {
	Record *Record  `json:"-"`
	ID     RecordID `json:"record_id"`
	Score  float64  `json:"score"`
	Rank   int      `json:"rank"`
}
