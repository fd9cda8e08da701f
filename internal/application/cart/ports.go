package cart

type IDGenerator interface {
	NewID() string
}
