package domain

type StoreID string

const (
	StoreFreshFries StoreID = "fresh_fries"
	StoreYesFresh   StoreID = "yes_fresh"
)

type Store struct {
	ID   StoreID `json:"id"`
	Name string  `json:"name"`
}

// 门店是固定的目录，运行时不会新增或删除
var stores = []Store{
	{ID: StoreFreshFries, Name: "Fresh Fries"},
	{ID: StoreYesFresh, Name: "Yes Fresh"},
}

func Stores() []Store {
	return append([]Store(nil), stores...)
}

func LookupStore(id StoreID) (Store, error) {
	for _, s := range stores {
		if s.ID == id {
			return s, nil
		}
	}
	return Store{}, &UnknownStoreError{StoreID: id}
}

func (id StoreID) Validate() error {
	_, err := LookupStore(id)
	return err
}

func (id StoreID) Name() string {
	s, err := LookupStore(id)
	if err != nil {
		return string(id)
	}
	return s.Name
}
