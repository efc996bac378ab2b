// Command seed fills the development database with fake users, posts and likes.
package main

import (
	"context"
	"flag"
	"log"

	"microblog/internal/config"
	"microblog/internal/database"
	"microblog/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create")
	numPosts := flag.Int("posts", 40, "Number of posts to create")
	numLikes := flag.Int("likes", 100, "Number of likes to record")
	shouldClean := flag.Bool("clean", false, "Remove existing users and posts first")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	log.Printf("Target: %d users, %d posts, %d likes, clean=%v", *numUsers, *numPosts, *numLikes, *shouldClean)

	sum, err := seed.Seed(context.Background(), db, seed.Options{
		Users: *numUsers,
		Posts: *numPosts,
		Likes: *numLikes,
		Clean: *shouldClean,
		Seed:  *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d posts and %d likes (%d users in total)", sum.Users, sum.Posts, sum.Likes, sum.TotalUsers)
}
