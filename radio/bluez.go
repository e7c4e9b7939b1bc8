package radio

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/mobilityhq/tripbridge"
)

const (
	bluezBus      = "org.bluez"
	deviceIface   = "org.bluez.Device1"
	objectManager = "org.freedesktop.DBus.ObjectManager"
)

// BlueZEnumerator lists bonded devices through the BlueZ object tree on
// the system bus.
type BlueZEnumerator struct {
	conn *dbus.Conn
}

// NewBlueZEnumerator connects to the system bus and verifies BlueZ is
// present on it.
func NewBlueZEnumerator() (*BlueZEnumerator, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect to system bus: %w", err)
	}
	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		conn.Close()
		return nil, fmt.Errorf("list bus names: %w", err)
	}
	found := false
	for _, n := range names {
		if n == bluezBus {
			found = true
			break
		}
	}
	if !found {
		conn.Close()
		return nil, fmt.Errorf("org.bluez not found on system bus — is bluetooth.service running?")
	}
	return &BlueZEnumerator{conn: conn}, nil
}

func (b *BlueZEnumerator) Close() {
	b.conn.Close()
}

func (b *BlueZEnumerator) Paired(ctx context.Context) ([]tripbridge.Device, error) {
	return b.list(ctx, "Paired")
}

func (b *BlueZEnumerator) Connected(ctx context.Context) ([]tripbridge.Device, error) {
	return b.list(ctx, "Connected")
}

// list walks every org.bluez.Device1 object and keeps the ones whose named
// boolean property is set.
func (b *BlueZEnumerator) list(ctx context.Context, prop string) ([]tripbridge.Device, error) {
	managed := make(map[dbus.ObjectPath]map[string]map[string]dbus.Variant)
	call := b.conn.Object(bluezBus, "/").CallWithContext(ctx, objectManager+".GetManagedObjects", 0)
	if err := call.Store(&managed); err != nil {
		if dbusErr, ok := err.(dbus.Error); ok && strings.Contains(dbusErr.Name, "AccessDenied") {
			return nil, &PermissionError{Permission: "BLUETOOTH_CONNECT"}
		}
		return nil, fmt.Errorf("bluez: get managed objects: %w", err)
	}

	var devices []tripbridge.Device
	for path, ifaces := range managed {
		props, ok := ifaces[deviceIface]
		if !ok {
			continue
		}
		if want, _ := props[prop].Value().(bool); !want {
			continue
		}
		devices = append(devices, deviceFromProps(path, props))
	}
	return devices, nil
}

func deviceFromProps(path dbus.ObjectPath, props map[string]dbus.Variant) tripbridge.Device {
	d := tripbridge.Device{}
	if addr, ok := props["Address"].Value().(string); ok {
		d.ID = addr
	} else {
		d.ID = macFromPath(path)
	}
	if alias, ok := props["Alias"].Value().(string); ok && alias != "" {
		d.Name = alias
	} else if name, ok := props["Name"].Value().(string); ok {
		d.Name = name
	}
	d.Connected, _ = props["Connected"].Value().(bool)
	return d
}

// macFromPath extracts a MAC address from a BlueZ device object path like
// "/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF".
func macFromPath(path dbus.ObjectPath) string {
	s := string(path)
	i := strings.LastIndex(s, "/dev_")
	if i < 0 {
		return ""
	}
	return strings.ReplaceAll(s[i+len("/dev_"):], "_", ":")
}
