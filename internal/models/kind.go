// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package models

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// KindName is the node_type string used on the wire.
type KindName string

const (
	KindInfo          KindName = "info"
	KindNPC           KindName = "npc"
	KindItem          KindName = "item"
	KindMapLink       KindName = "map_link"
	KindBackgroundMap KindName = "background_map"
)

// Kind is the tagged payload of a node. The concrete type is one of Info,
// NPC, Item, MapLink or BackgroundMap.
type Kind interface {
	Name() KindName
	isKind()
}

// Info is a plain annotation.
type Info struct {
	Title string `json:"title,omitempty"`
}

// NPC references a character sheet.
type NPC struct {
	CharacterID int64 `json:"character_id"`
}

// Item references an inventory item.
type Item struct {
	ItemID int64 `json:"item_id"`
}

// MapLink is a portal to another map.
type MapLink struct {
	TargetMapID int64 `json:"target_map_id"`
}

// BackgroundMap places an uploaded image behind the other nodes.
type BackgroundMap struct {
	ImageID int64 `json:"image_id"`
}

func (Info) Name() KindName          { return KindInfo }
func (NPC) Name() KindName           { return KindNPC }
func (Item) Name() KindName          { return KindItem }
func (MapLink) Name() KindName       { return KindMapLink }
func (BackgroundMap) Name() KindName { return KindBackgroundMap }

func (Info) isKind()          {}
func (NPC) isKind()           {}
func (Item) isKind()          {}
func (MapLink) isKind()       {}
func (BackgroundMap) isKind() {}

// ErrUnknownKind is wrapped by DecodeKind for node types it does not recognize.
var ErrUnknownKind = errors.New("unknown node kind")

// DecodeKind resolves a node_type and its metadata payload. Empty metadata
// yields the zero payload of the named kind. An unknown name returns Info{}
// together with ErrUnknownKind.
func DecodeKind(name string, metadata json.RawMessage) (Kind, error) {
	var kind Kind
	var err error

	switch KindName(name) {
	case KindInfo, "":
		var k Info
		err = unmarshalPayload(metadata, &k)
		kind = k
	case KindNPC:
		var k NPC
		err = unmarshalPayload(metadata, &k)
		kind = k
	case KindItem:
		var k Item
		err = unmarshalPayload(metadata, &k)
		kind = k
	case KindMapLink:
		var k MapLink
		err = unmarshalPayload(metadata, &k)
		kind = k
	case KindBackgroundMap:
		var k BackgroundMap
		err = unmarshalPayload(metadata, &k)
		kind = k
	default:
		return Info{}, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}

	if err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", name, err)
	}
	return kind, nil
}

// EncodeKind returns the wire name and metadata payload for k.
func EncodeKind(k Kind) (string, json.RawMessage, error) {
	if k == nil {
		k = Info{}
	}
	data, err := json.Marshal(k)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s metadata: %w", k.Name(), err)
	}
	return string(k.Name()), data, nil
}

func unmarshalPayload(data json.RawMessage, v interface{}) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}
