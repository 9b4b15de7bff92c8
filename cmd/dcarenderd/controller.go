package main

import (
	"fmt"

	"github.com/intuitionamiga/dcaspatial/internal/dca"
	"github.com/intuitionamiga/dcaspatial/internal/netserver"
	"github.com/intuitionamiga/dcaspatial/internal/scene"
	"github.com/intuitionamiga/dcaspatial/internal/xmlproto"
)

// controller bridges parsed xmlproto commands into scene/engine state
// changes and re-broadcasts every accepted edit as an <update> fragment,
// mirroring how ssr::Publisher fans out a Subscriber notification for
// every SceneControlCommand it processes.
type controller struct {
	scene     *scene.State
	engine    *dca.Engine
	publisher *netserver.Publisher
}

func newController(sc *scene.State, engine *dca.Engine, pub *netserver.Publisher) *controller {
	return &controller{scene: sc, engine: engine, publisher: pub}
}

func (c *controller) HandleSource(cmd *xmlproto.SourceCommand) error {
	switch {
	case cmd.Delete && cmd.ID == 0:
		for _, src := range c.scene.Sources() {
			_ = c.engine.RemoveSource(src.ID)
		}
		c.scene.DeleteAllSources()
		c.publisher.Broadcast(xmlproto.DeleteAllSources())
		return nil
	case cmd.Delete:
		if !c.scene.DeleteSource(cmd.ID) {
			return fmt.Errorf("unknown source id %d", cmd.ID)
		}
		if err := c.engine.RemoveSource(cmd.ID); err != nil {
			return err
		}
		c.publisher.Broadcast(xmlproto.DeleteSource(cmd.ID))
		return nil
	case cmd.New:
		src := scene.Source{ID: cmd.ID, Name: cmd.Name}
		if cmd.Position != nil {
			src.Position = *cmd.Position
		}
		if cmd.Orientation != nil {
			src.Orientation = *cmd.Orientation
		}
		if cmd.Model != "" {
			model, err := scene.ParseSourceModel(cmd.Model)
			if err != nil {
				return err
			}
			src.Model = model
		}
		if cmd.Gain != nil {
			src.Gain = *cmd.Gain
		}
		if cmd.Mute != nil {
			src.Mute = *cmd.Mute
		}
		if cmd.Fixed != nil {
			src.Fixed = *cmd.Fixed
		}
		id := c.scene.AddSource(src)
		if err := c.engine.AddSource(id); err != nil {
			c.scene.DeleteSource(id)
			return err
		}
		c.publisher.Broadcast(xmlproto.NewSource(id))
		c.broadcastSourceFields(id, cmd)
		return nil
	default:
		return c.applySourceEdit(cmd)
	}
}

func (c *controller) applySourceEdit(cmd *xmlproto.SourceCommand) error {
	id := cmd.ID
	var applyErr error
	ok := c.scene.UpdateSource(id, func(src *scene.Source) {
		if cmd.Name != "" {
			src.Name = cmd.Name
		}
		if cmd.Position != nil {
			src.Position = *cmd.Position
		}
		if cmd.Orientation != nil {
			src.Orientation = *cmd.Orientation
		}
		if cmd.Model != "" {
			model, err := scene.ParseSourceModel(cmd.Model)
			if err != nil {
				applyErr = err
				return
			}
			src.Model = model
		}
		if cmd.Gain != nil {
			src.Gain = *cmd.Gain
		}
		if cmd.Mute != nil {
			src.Mute = *cmd.Mute
		}
		if cmd.Fixed != nil {
			src.Fixed = *cmd.Fixed
		}
	})
	if !ok {
		return fmt.Errorf("unknown source id %d", cmd.ID)
	}
	if applyErr != nil {
		return applyErr
	}
	c.broadcastSourceFields(id, cmd)
	return nil
}

func (c *controller) broadcastSourceFields(id int, cmd *xmlproto.SourceCommand) {
	if cmd.Position != nil {
		c.publisher.Broadcast(xmlproto.SourcePosition(id, *cmd.Position))
	}
	if cmd.Fixed != nil {
		c.publisher.Broadcast(xmlproto.SourcePositionFixed(id, *cmd.Fixed))
	}
	if cmd.Orientation != nil {
		c.publisher.Broadcast(xmlproto.SourceOrientation(id, *cmd.Orientation))
	}
	if cmd.Gain != nil {
		c.publisher.Broadcast(xmlproto.SourceGain(id, scene.LinearToDB, *cmd.Gain))
	}
	if cmd.Mute != nil {
		c.publisher.Broadcast(xmlproto.SourceMute(id, *cmd.Mute))
	}
	if cmd.Model != "" {
		c.publisher.Broadcast(xmlproto.SourceModel(id, cmd.Model))
	}
}

func (c *controller) HandleReference(cmd *xmlproto.ReferenceCommand) error {
	if cmd.Position != nil {
		c.scene.SetReferencePosition(*cmd.Position)
		c.publisher.Broadcast(xmlproto.ReferencePosition(*cmd.Position))
	}
	if cmd.Orientation != nil {
		c.scene.SetReferenceOrientation(*cmd.Orientation)
		c.publisher.Broadcast(xmlproto.ReferenceOrientation(*cmd.Orientation))
	}
	return nil
}

func (c *controller) HandleState(cmd *xmlproto.StateCommand) error {
	if cmd.Transport != "" {
		rolling, _ := c.scene.Transport()
		switch cmd.Transport {
		case "start":
			if !rolling {
				c.scene.SetTransport(true, 0)
				c.scene.SetProcessingActive(true)
				c.publisher.Broadcast(xmlproto.TransportState(true))
			}
		case "stop":
			if rolling {
				c.scene.SetTransport(false, 0)
				c.publisher.Broadcast(xmlproto.TransportState(false))
			}
		default:
			return fmt.Errorf("unknown transport state %q", cmd.Transport)
		}
	}
	if cmd.MasterVolume != nil {
		c.scene.SetMasterVolume(*cmd.MasterVolume)
		c.publisher.Broadcast(xmlproto.MasterVolume(scene.LinearToDB, *cmd.MasterVolume))
	}
	return nil
}
