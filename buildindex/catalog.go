package buildindex

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// catalogDoc is the document shape mirrored into Mongo for one indexed
// track: metadata only, never fingerprints — the catalog is for browsing
// and lookups, not for matching.
type catalogDoc struct {
	AudioID      uint32 `bson:"audio_id"`
	Path         string `bson:"path"`
	RelPath      string `bson:"rel_path"`
	Artist       string `bson:"artist,omitempty"`
	Album        string `bson:"album,omitempty"`
	Title        string `bson:"title,omitempty"`
	Duration     float64 `bson:"duration"`
	Fingerprints int    `bson:"fingerprint_count"`
}

// MirrorCatalog upserts every track in seg into a Mongo collection, keyed
// by audio ID, so operators can browse/search indexed titles without
// touching the segment files themselves.
func MirrorCatalog(ctx context.Context, uri, database, collection string, seg *Segment) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("buildindex: mongo connect: %w", err)
	}
	defer client.Disconnect(ctx)

	coll := client.Database(database).Collection(collection)

	for _, t := range seg.Tracks {
		doc := catalogDoc{
			AudioID:      t.Meta.AudioID,
			Path:         t.Meta.Path,
			RelPath:      t.Meta.RelPath,
			Artist:       t.Meta.Artist,
			Album:        t.Meta.Album,
			Title:        t.Meta.Title,
			Duration:     t.Meta.Duration,
			Fingerprints: len(t.Fingerprints),
		}

		filter := bson.M{"audio_id": t.Meta.AudioID}
		update := bson.M{"$set": doc}
		opts := options.Update().SetUpsert(true)

		if _, err := coll.UpdateOne(ctx, filter, update, opts); err != nil {
			return fmt.Errorf("buildindex: mongo upsert audio_id %d: %w", t.Meta.AudioID, err)
		}
	}

	return nil
}
