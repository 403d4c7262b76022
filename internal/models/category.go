package models

type CategoryCount struct {
	Category string `json:"category" bson:"_id"`
	Count    int64  `json:"count" bson:"count"`
}

type Stats struct {
	TotalIdeas int64           `json:"total_ideas"`
	ByCategory []CategoryCount `json:"by_category"`
}
