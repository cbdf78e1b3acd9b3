package category

const MaxNameLength = 30

type Category struct {
	ID   uint
	Name string
}
