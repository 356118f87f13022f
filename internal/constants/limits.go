package constants

const (
	// IDRandomBytes is the number of random bytes in generated entity IDs.
	IDRandomBytes = 12

	DefaultPage      = 1
	DefaultPageLimit = 10
	MaxPageLimit     = 100

	DefaultPopularTagsLimit = 20
	MaxPopularTagsLimit     = 100

	BlogTitleMinLength       = 3
	BlogTitleMaxLength       = 200
	BlogDescriptionMinLength = 10
	BlogTagMaxLength         = 30

	RoleUser  = "user"
	RoleAdmin = "admin"
)
