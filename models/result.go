package models

// DefaultIcon is the plugin icon shipped next to the binary.
const DefaultIcon = "Images/icon.png"

// Result is one displayable row returned to the host.
type Result struct {
	Title            string         `json:"Title"`
	SubTitle         string         `json:"SubTitle"`
	IcoPath          string         `json:"IcoPath,omitempty"`
	Score            int            `json:"Score"`
	AutoCompleteText string         `json:"AutoCompleteText,omitempty"`
	ContextData      any            `json:"ContextData,omitempty"`
	JsonRPCAction    *JsonRPCAction `json:"JsonRPCAction,omitempty"`
}

// JsonRPCAction names a method the plugin (or the host) runs when the
// row is selected.
type JsonRPCAction struct {
	Method     string `json:"method"`
	Parameters []any  `json:"parameters"`
}

// ContextMenuItem is one entry of a row's context menu, as delivered
// by the search endpoint.
type ContextMenuItem struct {
	Title         string         `json:"Title"`
	SubTitle      string         `json:"SubTitle"`
	IcoPath       string         `json:"IcoPath,omitempty"`
	JsonRPCAction *JsonRPCAction `json:"JsonRPCAction,omitempty"`
}

// MenuContextData wraps server-defined context menu items so the
// context_menu RPC can rebuild them later. The original payload the
// server attached (if any) rides along untouched.
type MenuContextData struct {
	OriginalData     any   `json:"original_data"`
	DefinedMenuItems []any `json:"defined_menu_items"`
}
