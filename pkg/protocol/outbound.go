package protocol

import (
	"encoding/json"
	"fmt"
)

// Version is the NetworkVersion object sent in the handshake.
type Version struct {
	Major int    `json:"major"`
	Minor int    `json:"minor"`
	Build int    `json:"build"`
	Class string `json:"class"`
}

var ClientVersion = Version{Major: 0, Minor: 6, Build: 3, Class: "Version"}

const (
	// TagAP marks a generic text client.
	TagAP = "AP"
	// ItemsHandlingAll asks for items from other worlds, own world and starting inventory.
	ItemsHandlingAll = 0b111
)

// Connect is the handshake command; field order is fixed by the struct.
type Connect struct {
	Cmd           Command  `json:"cmd"`
	Password      string   `json:"password"`
	Game          string   `json:"game"`
	Name          string   `json:"name"`
	Version       Version  `json:"version"`
	Tags          []string `json:"tags"`
	ItemsHandling int      `json:"items_handling"`
	UUID          string   `json:"uuid"`
}

// NewConnect fills in the fixed version, tag and items-handling fields.
func NewConnect(password, game, name, uuid string) *Connect {
	return &Connect{
		Cmd:           CmdConnect,
		Password:      password,
		Game:          game,
		Name:          name,
		Version:       ClientVersion,
		Tags:          []string{TagAP},
		ItemsHandling: ItemsHandlingAll,
		UUID:          uuid,
	}
}

// GetDataPackage requests catalogs. An empty Games list asks for every game.
type GetDataPackage struct {
	Cmd   Command  `json:"cmd"`
	Games []string `json:"games,omitempty"`
}

func NewGetDataPackage(games ...string) *GetDataPackage {
	return &GetDataPackage{Cmd: CmdGetDataPackage, Games: games}
}

// Encode wraps commands in the JSON array the server expects.
func Encode(cmds ...any) ([]byte, error) {
	if cmds == nil {
		cmds = []any{}
	}
	data, err := json.Marshal(cmds)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return data, nil
}
