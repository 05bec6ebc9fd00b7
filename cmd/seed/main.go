package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"

	"Picfeed/internal/app"
	"Picfeed/internal/blobstore"
	"Picfeed/internal/config"
	"Picfeed/internal/core/comments"
	"Picfeed/internal/core/likes"
	"Picfeed/internal/core/posts"
	"Picfeed/internal/core/users"
	"Picfeed/internal/db"
)

var seedUsers = []struct {
	externalID string
	name       string
}{
	{"seed_alice", "Alice"},
	{"seed_bob", "Bob"},
	{"seed_carol", "Carol"},
}

var seedComments = []string{
	"Love this!",
	"Where was this taken?",
	"Great colors",
	"🔥🔥🔥",
}

// seed provisions demo users, posts, likes and comments through the regular services.
//
// Usage:
//
//	go run ./cmd/seed -posts 12
func main() {
	postsPerUser := flag.Int("posts", 4, "posts to create per user")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	logger := cfg.NewLogger()
	ctx := context.Background()

	conn, err := db.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn, cfg.DatabaseDriver); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	store, err := blobstore.NewDiskStore(cfg.BlobDir, cfg.PublicBaseURL, logger)
	if err != nil {
		log.Fatal("Failed to initialize blob store: ", err)
	}

	repos := app.NewRepositories(cfg.DatabaseDriver, conn)
	services := app.NewServices(repos, store, app.ServiceOptions{Logger: logger})

	seeded := make([]*users.User, 0, len(seedUsers))
	for _, su := range seedUsers {
		u, err := ensureUser(ctx, repos.Users, su.externalID, su.name)
		if err != nil {
			log.Fatalf("Failed to seed user %s: %v", su.externalID, err)
		}
		seeded = append(seeded, u)
	}

	var created []*posts.Post
	for i, u := range seeded {
		for n := 0; n < *postsPerUser; n++ {
			img, err := swatch(i*(*postsPerUser) + n)
			if err != nil {
				log.Fatalf("Failed to render image: %v", err)
			}
			caption := fmt.Sprintf("%s's photo #%d", u.DisplayName, n+1)
			post, err := services.Posts.CreatePost(ctx, posts.CreatePostRequest{
				AuthorExternalID: u.ExternalID,
				Image:            img,
				ContentType:      "image/png",
				Filename:         "seed.png",
				Caption:          &caption,
			})
			if err != nil {
				log.Fatalf("Failed to create post: %v", err)
			}
			created = append(created, post)
		}
	}

	likeCount, commentCount := 0, 0
	for pi, post := range created {
		for ui, u := range seeded {
			if u.ID == post.AuthorID {
				continue
			}
			if (pi+ui)%2 == 0 {
				_, err := services.Likes.AddLike(ctx, post.ID, u.ExternalID)
				if err != nil && !errors.Is(err, likes.ErrAlreadyLiked) {
					log.Fatalf("Failed to like post: %v", err)
				}
				likeCount++
			}
			if (pi+ui)%3 == 0 {
				_, err := repos.Comments.Create(ctx, &comments.Comment{
					PostID:  post.ID,
					UserID:  u.ID,
					Content: seedComments[(pi+ui)%len(seedComments)],
				})
				if err != nil {
					log.Fatalf("Failed to comment: %v", err)
				}
				commentCount++
			}
		}
	}

	logger.Info("seed complete",
		"users", len(seeded),
		"posts", len(created),
		"likes", likeCount,
		"comments", commentCount)
	logger.Info("mint a token for a seeded user", "command", "go run ./cmd/devtoken -sub "+seedUsers[0].externalID)
}

func ensureUser(ctx context.Context, repo users.UserRepository, externalID, name string) (*users.User, error) {
	u, err := repo.Create(ctx, &users.User{ExternalID: externalID, DisplayName: name})
	if errors.Is(err, users.ErrExternalIDTaken) {
		return repo.GetByExternalID(ctx, externalID)
	}
	return u, err
}

// swatch renders a small gradient PNG whose hue depends on n
func swatch(n int) ([]byte, error) {
	const size = 64
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	base := uint8(n * 37)
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			img.Set(x, y, color.RGBA{R: base + uint8(x*2), G: uint8(y * 3), B: 255 - base, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
