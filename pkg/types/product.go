package types

type ProductId uint

// Product is the canonical internal shape. Upstream feeds use a handful of
// field name variants, the boundary normalizes them here and downstream code
// never branches on variants.
type Product struct {
	Id                   ProductId    `json:"productId"`
	Sku                  string       `json:"sku"`
	Name                 string       `json:"name"`
	Slug                 string       `json:"slug,omitempty"`
	BrandId              uint         `json:"brandId,omitempty"`
	Price                int64        `json:"price"`
	PreviousPrice        int64        `json:"previousPrice,omitempty"`
	Power                int          `json:"power,omitempty"`
	BladeCount           int          `json:"bladeCount,omitempty"`
	RemoteControl        bool         `json:"remoteControl,omitempty"`
	Oscillation          bool         `json:"oscillation,omitempty"`
	Timer                bool         `json:"timer,omitempty"`
	TagCodes             []string     `json:"tags,omitempty"`
	CategoryIds          []CategoryId `json:"categoryIds,omitempty"`
	SpaceId              CategoryId   `json:"spaceId,omitempty"`
	PurposeId            CategoryId   `json:"purposeId,omitempty"`
	TechnologyId         CategoryId   `json:"technologyId,omitempty"`
	CompatibleFanTypeIds []CategoryId `json:"compatibleFanTypeIds,omitempty"`
	Img                  string       `json:"img,omitempty"`
	IsAccessory          bool         `json:"isAccessory,omitempty"`
	Deleted              bool         `json:"deleted,omitempty"`
}

func (p *Product) GetId() ProductId {
	return p.Id
}

func (p *Product) IsDeleted() bool {
	return p.Deleted
}

func (p *Product) HasTag(code string) bool {
	for _, t := range p.TagCodes {
		if t == code {
			return true
		}
	}
	return false
}

func (p *Product) HasCategory(id CategoryId) bool {
	for _, c := range p.CategoryIds {
		if c == id {
			return true
		}
	}
	return false
}

func (p *Product) IsCompatibleWith(fanTypeId CategoryId) bool {
	for _, c := range p.CompatibleFanTypeIds {
		if c == fanTypeId {
			return true
		}
	}
	return false
}

type Brand struct {
	Id   uint   `json:"id"`
	Name string `json:"name"`
}

type Tag struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// StockChange is emitted whenever a warehouse quantity is mutated.
type StockChange struct {
	StoreId   string    `json:"storeId"`
	ProductId ProductId `json:"productId"`
	Quantity  uint16    `json:"quantity"`
	Reason    string    `json:"reason"`
}
