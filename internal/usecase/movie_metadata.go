package usecase

import "context"

// MovieMetadata is the subset of catalog data the core keeps with a
// nomination. The catalog itself (search, images, full credits) lives
// behind the lookup service and is out of scope here.
type MovieMetadata struct {
	MovieID     int64
	Title       string
	PosterPath  string
	ReleaseYear int
}

// MovieMetadataLookup resolves an external movie id to display
// metadata. Implemented by the TMDB client.
type MovieMetadataLookup interface {
	GetMovieByID(ctx context.Context, movieID int64) (MovieMetadata, error)
}
