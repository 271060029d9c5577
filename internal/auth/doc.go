// Package auth provides authentication and authorization for the API.
//
// Users register with email and password; passwords are stored as bcrypt
// hashes. Login issues an HS256 JWT carrying the user id and role, which
// clients send back as "Authorization: Bearer <token>".
//
// # Configuration
//
//	AUTH_JWT_SECRET=<random string>  # Auto-generated if empty (tokens die on restart)
//	AUTH_TOKEN_EXPIRY=24h            # Token lifetime
//	AUTH_BCRYPT_COST=12              # bcrypt cost factor
//	AUTH_ADMIN_EMAIL=admin@lib.local # Optional bootstrap admin
//	AUTH_ADMIN_PASSWORD=...
//
// # Usage
//
//	tokens, _ := auth.NewTokenIssuer(cfg.Auth)
//	authService := auth.NewService(userRepo, tokens, cfg.Auth)
//	authMiddleware := auth.NewMiddleware(authService)
//	api.Use(authMiddleware.Handler())
//	admin.Use(authMiddleware.RequireRole(entities.UserRoleAdmin))
//
// Extract user in handlers:
//
//	userID := auth.GetUserID(c)
package auth
