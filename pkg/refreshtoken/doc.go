// Package refreshtoken stores opaque refresh tokens and rotates them.
//
// Every successful refresh revokes the presented token and links it to a new
// one, forming a chain. Presenting a token that has already been rotated
// revokes the entire chain.
//
//	repo := refreshtoken.NewPostgresRepository(pool)
//	svc := refreshtoken.NewService(repo, refreshtoken.WithExpiry(30*24*time.Hour))
//
//	raw, _, err := svc.Issue(ctx, userID, clientID, refreshtoken.Metadata{IPAddress: ip})
//	rotation, err := svc.Rotate(ctx, raw, clientID, meta)
package refreshtoken
