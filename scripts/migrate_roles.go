package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Backfills the role field for accounts created before roles existed.
// Accounts with a company name become recruiters, everyone else a student.
func main() {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(ctx)

	collection := client.Database("elevatr").Collection("users")

	result, err := collection.UpdateMany(
		ctx,
		bson.M{
			"$or": []bson.M{
				{"role": bson.M{"$exists": false}},
				{"role": ""},
			},
		},
		[]bson.M{
			{
				"$set": bson.M{
					"role": bson.M{
						"$cond": bson.A{
							bson.M{"$gt": bson.A{"$company_name", ""}},
							"recruiter",
							"student",
						},
					},
				},
			},
		},
	)

	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Migrated %d users\n", result.ModifiedCount)
}
