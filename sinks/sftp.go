package sinks

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"path"
	"time"

	"amsflow/logger"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// writeSFTP uploads reader to remotePath on an SFTP server.
// Settings: host, user, and password or private_key (base64 or raw PEM).
// Optional: port (default 22), host_key (authorized_keys line) to pin the server key.
func writeSFTP(ctx context.Context, settings map[string]string, remotePath string, reader io.Reader) error {
	if err := require(settings, "host", "user"); err != nil {
		return err
	}
	port := settings["port"]
	if port == "" {
		port = "22"
	}

	auths, err := sftpAuth(settings)
	if err != nil {
		return err
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if pinned := settings["host_key"]; pinned != "" {
		key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(pinned))
		if err != nil {
			return fmt.Errorf("parse host_key: %w", err)
		}
		hostKeyCallback = ssh.FixedHostKey(key)
	}

	config := &ssh.ClientConfig{
		User:            settings["user"],
		Auth:            auths,
		HostKeyCallback: hostKeyCallback,
		Timeout:         10 * time.Second,
	}

	addr := net.JoinHostPort(settings["host"], port)

	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial tcp %s: %w", addr, err)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	sshClient := ssh.NewClient(clientConn, chans, reqs)
	defer sshClient.Close()

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		return fmt.Errorf("create sftp client: %w", err)
	}
	defer sftpClient.Close()

	if err := uploadSFTP(sftpClient, remotePath, reader); err != nil {
		return err
	}
	logger.Debugf("Uploaded '%s' to %s", remotePath, addr)
	return nil
}

// uploadSFTP creates the parent directories of remotePath and copies reader into it.
func uploadSFTP(client *sftp.Client, remotePath string, reader io.Reader) error {
	dir := path.Dir(remotePath)
	if err := client.MkdirAll(dir); err != nil {
		return fmt.Errorf("ensure remote dir %s: %w", dir, err)
	}

	f, err := client.Create(remotePath)
	if err != nil {
		return fmt.Errorf("create remote file %s: %w", remotePath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("copy to remote file %s: %w", remotePath, err)
	}
	return nil
}

func sftpAuth(settings map[string]string) ([]ssh.AuthMethod, error) {
	if privateKey := settings["private_key"]; privateKey != "" {
		// try to decode as base64, fall back to raw
		keyBytes, err := base64.StdEncoding.DecodeString(privateKey)
		if err != nil {
			keyBytes = []byte(privateKey)
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	if password := settings["password"]; password != "" {
		return []ssh.AuthMethod{ssh.Password(password)}, nil
	}
	return nil, fmt.Errorf("no auth method provided; set SINK_PASSWORD or SINK_PRIVATE_KEY")
}
