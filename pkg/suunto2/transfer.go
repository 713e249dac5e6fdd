package suunto2

import (
	"github.com/Qinmu-mu/libdc-for-dirk/pkg/dcstatus"
)

// transfer performs one command/answer exchange. Occasionally the
// computer does not respond or returns a corrupted packet; such
// exchanges are reissued up to cfg.MaxRetries times before the error
// surfaces. Non-transient errors surface immediately.
func (d *Device) transfer(command, answer []byte) error {
	if d.transport == nil {
		return dcstatus.Wrap(dcstatus.ErrUnsupported, "no transport attached")
	}

	nretries := 0
	for {
		err := d.transport.SendReceive(command, answer)
		if err == nil {
			return nil
		}
		if !dcstatus.IsTransient(err) {
			return err
		}
		if nretries >= d.cfg.MaxRetries {
			return err
		}
		nretries++
		if d.log != nil {
			d.log.Warn().Err(err).Int("retry", nretries).Int("opcode", int(command[0])).Msg("packet exchange failed, retrying")
		}
	}
}
