// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctf

import "fmt"

var packetFeatureOrder = []struct {
	key  string
	name string
}{
	{"beginning-timestamp-field-type", "timestamp_begin"},
	{"end-timestamp-field-type", "timestamp_end"},
	{"total-size-field-type", "total_size"},
	{"content-size-field-type", "content_size"},
	{"discarded-event-records-counter-snapshot-field-type", "events_discarded"},
	{"sequence-number-field-type", "packet_seq_num"},
}

func compileDataStreamType(name string, raw Tree, native ByteOrder, path string) (*DataStreamType, error) {
	m, ok := asMap(raw)
	if !ok {
		return nil, newConfigErr(BadFieldSpec, path, "data stream type must be a mapping")
	}

	idT, ok := m["id"]
	if !ok {
		return nil, newConfigErr(MissingFeature, path, "data stream type requires id")
	}
	id, ok := asInt64(idT)
	if !ok || id < 0 {
		return nil, newConfigErr(BadFieldSpec, path+".id", "id must be a non-negative integer")
	}

	st := &DataStreamType{ID: uint64(id), Name: name, EventsByID: map[uint64]*EventRecordType{}}

	if clockT, ok := m["default-clock-type-name"]; ok {
		s, ok := asString(clockT)
		if !ok {
			return nil, newConfigErr(BadFieldSpec, path+".default-clock-type-name", "default-clock-type-name must be a string")
		}
		st.DefaultClockType = s
	}

	var packetFeatures map[string]any
	var eventFeatures map[string]any
	if featT, ok := m["$features"]; ok {
		feat, ok := asMap(featT)
		if !ok {
			return nil, newConfigErr(BadFieldSpec, path+".$features", "$features must be a mapping")
		}
		for k, v := range feat {
			switch k {
			case "packet":
				pm, ok := asMap(v)
				if !ok {
					return nil, newConfigErr(BadFieldSpec, path+".$features.packet", "packet features must be a mapping")
				}
				packetFeatures = pm
			case "event-record":
				em, ok := asMap(v)
				if !ok {
					return nil, newConfigErr(BadFieldSpec, path+".$features.event-record", "event-record features must be a mapping")
				}
				eventFeatures = em
			default:
				return nil, newConfigErr(UnsupportedFeature, path+".$features."+k, "unsupported data stream feature toggle")
			}
		}
	}

	pctxMembers, err := buildPacketContext(packetFeatures, native, path+".$features.packet")
	if err != nil {
		return nil, err
	}
	if extraT, ok := m["packet-context-field-type-extra-members"]; ok {
		extra, err := parseStruct(map[string]any{"member-types": extraT}, native, path+".packet-context-field-type-extra-members")
		if err != nil {
			return nil, err
		}
		sd := extra.(StructDesc)
		pctxMembers = append(pctxMembers, sd.Members...)
	}
	st.PacketContext = StructDesc{Members: pctxMembers}

	hasTypeID, hasTimestamp, typeIDDesc, tsDesc, err := parseEventRecordFeatures(eventFeatures, native, path+".$features.event-record")
	if err != nil {
		return nil, err
	}
	st.HasEventTypeID = hasTypeID
	st.HasEventTimestamp = hasTimestamp
	var ehMembers []StructMember
	if hasTypeID {
		ehMembers = append(ehMembers, StructMember{Name: "id", Type: typeIDDesc})
	}
	if hasTimestamp {
		ehMembers = append(ehMembers, StructMember{Name: "timestamp", Type: tsDesc})
	}
	st.EventHeader = StructDesc{Members: ehMembers}

	if ccT, ok := m["event-record-common-context-field-type"]; ok {
		desc, err := parseFieldType(ccT, native, path+".event-record-common-context-field-type")
		if err != nil {
			return nil, err
		}
		sd, ok := desc.(StructDesc)
		if !ok {
			return nil, newConfigErr(BadFieldSpec, path+".event-record-common-context-field-type", "common context must be a structure")
		}
		st.CommonContext = &sd
	}

	eventsT, ok := m["event-record-types"]
	if !ok {
		return nil, newConfigErr(MissingFeature, path, "data stream type requires event-record-types")
	}
	eventsMap, ok := asMap(eventsT)
	if !ok {
		return nil, newConfigErr(BadFieldSpec, path+".event-record-types", "event-record-types must be a mapping")
	}
	if len(eventsMap) == 0 {
		return nil, newConfigErr(MissingFeature, path+".event-record-types", "at least one event record type is required")
	}
	for evName, evRaw := range eventsMap {
		ev, err := compileEventRecordType(evName, evRaw, native, fmt.Sprintf("%s.event-record-types.%s", path, evName))
		if err != nil {
			return nil, err
		}
		if _, dup := st.EventsByID[ev.ID]; dup {
			return nil, newConfigErr(DuplicateName, path+".event-record-types", fmt.Sprintf("duplicate event type id %d", ev.ID))
		}
		st.EventsByID[ev.ID] = ev
	}

	if !hasTypeID {
		if len(st.EventsByID) != 1 {
			return nil, newConfigErr(MissingFeature, path, "no type-id-field-type configured but more than one event record type is defined")
		}
		for _, ev := range st.EventsByID {
			st.DefaultEventType = ev
		}
	}

	return st, nil
}

func buildPacketContext(feat map[string]any, native ByteOrder, path string) ([]StructMember, error) {
	var out []StructMember
	seen := map[string]bool{}
	for k := range feat {
		known := false
		for _, pf := range packetFeatureOrder {
			if pf.key == k {
				known = true
				break
			}
		}
		if !known {
			return nil, newConfigErr(UnsupportedFeature, path+"."+k, "unsupported packet feature toggle")
		}
	}
	for _, pf := range packetFeatureOrder {
		raw, ok := feat[pf.key]
		if !ok {
			continue
		}
		if b, isBool := asBool(raw); isBool && !b {
			continue
		}
		desc, err := parseFieldType(raw, native, path+"."+pf.key)
		if err != nil {
			return nil, err
		}
		seen[pf.name] = true
		out = append(out, StructMember{Name: pf.name, Type: desc})
	}
	return out, nil
}

func parseEventRecordFeatures(feat map[string]any, native ByteOrder, path string) (hasTypeID, hasTimestamp bool, typeIDDesc, tsDesc FieldDesc, err error) {
	for k := range feat {
		switch k {
		case "type-id-field-type", "timestamp-field-type":
		default:
			return false, false, nil, nil, newConfigErr(UnsupportedFeature, path+"."+k, "unsupported event-record feature toggle")
		}
	}
	if raw, ok := feat["type-id-field-type"]; ok {
		boolVal, isBool := asBool(raw)
		if !(isBool && !boolVal) {
			d, e := parseFieldType(raw, native, path+".type-id-field-type")
			if e != nil {
				return false, false, nil, nil, e
			}
			typeIDDesc = d
			hasTypeID = true
		}
	}
	if raw, ok := feat["timestamp-field-type"]; ok {
		boolVal, isBool := asBool(raw)
		if !(isBool && !boolVal) {
			d, e := parseFieldType(raw, native, path+".timestamp-field-type")
			if e != nil {
				return false, false, nil, nil, e
			}
			tsDesc = d
			hasTimestamp = true
		}
	}
	return hasTypeID, hasTimestamp, typeIDDesc, tsDesc, nil
}

func compileEventRecordType(name string, raw Tree, native ByteOrder, path string) (*EventRecordType, error) {
	m, ok := asMap(raw)
	if !ok {
		return nil, newConfigErr(BadFieldSpec, path, "event record type must be a mapping")
	}
	idT, ok := m["id"]
	if !ok {
		return nil, newConfigErr(MissingFeature, path, "event record type requires id")
	}
	id, ok := asInt64(idT)
	if !ok || id < 0 {
		return nil, newConfigErr(BadFieldSpec, path+".id", "id must be a non-negative integer")
	}

	ev := &EventRecordType{Name: name, ID: uint64(id)}

	if llT, ok := m["log-level"]; ok {
		ll, ok := asInt64(llT)
		if !ok {
			return nil, newConfigErr(BadFieldSpec, path+".log-level", "log-level must be an integer")
		}
		ev.LogLevel = &ll
	}

	if scT, ok := m["specific-context-field-type"]; ok {
		desc, err := parseFieldType(scT, native, path+".specific-context-field-type")
		if err != nil {
			return nil, err
		}
		sd, ok := desc.(StructDesc)
		if !ok {
			return nil, newConfigErr(BadFieldSpec, path+".specific-context-field-type", "specific context must be a structure")
		}
		ev.SpecificContext = &sd
	}

	if pT, ok := m["payload-field-type"]; ok {
		desc, err := parseFieldType(pT, native, path+".payload-field-type")
		if err != nil {
			return nil, err
		}
		sd, ok := desc.(StructDesc)
		if !ok {
			return nil, newConfigErr(BadFieldSpec, path+".payload-field-type", "payload must be a structure")
		}
		ev.Payload = &sd
	}

	return ev, nil
}
