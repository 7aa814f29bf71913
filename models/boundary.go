package models

import "time"

// GeoBoundary holds raw GeoJSON. The most recently created one is active.
type GeoBoundary struct {
	ID        int64     `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	GeoJSON   string    `bson:"geojson" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
}

// ApiCredential stores a sealed third-party secret.
type ApiCredential struct {
	ID             int64     `bson:"_id" json:"-"`
	ServiceName    string    `bson:"serviceName" json:"service_name"`
	EncryptedValue string    `bson:"encryptedValue" json:"-"`
	CreatedByID    int64     `bson:"createdById" json:"created_by_id"`
	CreatedAt      time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updated_at"`
}
