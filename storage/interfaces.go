package storage

import "estate-recommender/models"

// ListingWriter is the interface any labeled-dataset sink must satisfy.
type ListingWriter interface {
	Write(ds *models.Dataset) error
	Close() error
}
