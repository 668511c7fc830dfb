package models

import (
	"time"

	"gorm.io/datatypes"
)

// Card mirrors one MTGJSON AllPrintings card printing. The UUID comes from
// the upstream data set and is never generated locally; rows are replaced
// wholesale on re-import rather than mutated field by field.
type Card struct {
	UUID     string `json:"uuid" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"not null;index"`
	SetCode  string `json:"set_code" gorm:"index:idx_cards_set_number"`
	Number   string `json:"number" gorm:"index:idx_cards_set_number"`
	Rarity   string `json:"rarity" gorm:"index"`
	Language string `json:"language"`

	AsciiName     string  `json:"ascii_name"`
	FaceName      string  `json:"face_name"`
	ManaCost      string  `json:"mana_cost"`
	ManaValue     float64 `json:"mana_value"`
	FaceManaValue float64 `json:"face_mana_value"`
	Type          string  `json:"type"`
	Text          string  `json:"text"`
	OriginalText  string  `json:"original_text"`
	FlavorText    string  `json:"flavor_text"`
	Power         string  `json:"power"`
	Toughness     string  `json:"toughness"`
	Loyalty       string  `json:"loyalty"`
	Defense       string  `json:"defense"`
	Layout        string  `json:"layout"`
	Side          string  `json:"side"`

	Artist        string `json:"artist"`
	BorderColor   string `json:"border_color"`
	FrameVersion  string `json:"frame_version"`
	SecurityStamp string `json:"security_stamp"`
	Watermark     string `json:"watermark"`

	EdhrecRank      int     `json:"edhrec_rank"`
	EdhrecSaltiness float64 `json:"edhrec_saltiness"`

	IsAlternative bool `json:"is_alternative"`
	IsFullArt     bool `json:"is_full_art"`
	IsFunny       bool `json:"is_funny"`
	IsOnlineOnly  bool `json:"is_online_only"`
	IsOversized   bool `json:"is_oversized"`
	IsPromo       bool `json:"is_promo"`
	IsReprint     bool `json:"is_reprint"`
	IsTextless    bool `json:"is_textless"`
	HasFoil       bool `json:"has_foil"`
	HasNonFoil    bool `json:"has_non_foil"`

	ScryfallID             string `json:"scryfall_id" gorm:"index"`
	ScryfallOracleID       string `json:"scryfall_oracle_id"`
	ScryfallIllustrationID string `json:"scryfall_illustration_id"`
	MultiverseID           string `json:"multiverse_id"`
	TcgplayerProductID     string `json:"tcgplayer_product_id"`

	// JSON-valued sub-documents; absent values are stored as explicit
	// null / [] markers, never left undefined.
	Colors         datatypes.JSON `json:"colors"`
	ColorIdentity  datatypes.JSON `json:"color_identity"`
	ColorIndicator datatypes.JSON `json:"color_indicator"`
	Types          datatypes.JSON `json:"types"`
	Subtypes       datatypes.JSON `json:"subtypes"`
	Supertypes     datatypes.JSON `json:"supertypes"`
	Keywords       datatypes.JSON `json:"keywords"`
	Finishes       datatypes.JSON `json:"finishes"`
	FrameEffects   datatypes.JSON `json:"frame_effects"`
	Printings      datatypes.JSON `json:"printings"`
	Variations     datatypes.JSON `json:"variations"`
	OtherFaceIDs   datatypes.JSON `json:"other_face_ids"`
	ArtistIDs      datatypes.JSON `json:"artist_ids"`
	BoosterTypes   datatypes.JSON `json:"booster_types"`
	Legalities     datatypes.JSON `json:"legalities"`
	ForeignData    datatypes.JSON `json:"foreign_data"`
	Rulings        datatypes.JSON `json:"rulings"`
	Identifiers    datatypes.JSON `json:"identifiers"`
	PurchaseUrls   datatypes.JSON `json:"purchase_urls"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CardSearchResult struct {
	Cards      []Card `json:"cards"`
	TotalCount int    `json:"total_count"`
	HasMore    bool   `json:"has_more"`
}
