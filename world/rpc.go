package world

import (
	"bytes"
	"log"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"strings"
	"sync/atomic"

	"github.com/hashicorp/yamux"
	"github.com/pkg/errors"
)

const defaultPort = ":8421"

type FetchChunkRequest struct {
	X, Y, Z int
}

type FetchChunkResponse struct {
	Data []byte
}

// Server serves generated chunks over yamux sessions. Every stream a
// client opens carries a jsonrpc codec.
type Server struct {
	*rpc.Server
	factory  Factory
	loader   Loader
	log      *log.Logger
	clientid int32
}

// NewServer returns a server that builds chunks with factory and fills
// them with loader. The loader must be safe for concurrent use.
func NewServer(factory Factory, loader Loader, logger *log.Logger) *Server {
	s := &Server{
		Server:  rpc.NewServer(),
		factory: factory,
		loader:  loader,
		log:     logger,
	}
	s.RegisterName("Chunk", &ChunkService{server: s})
	return s
}

func (s *Server) Serve(l net.Listener) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			return err
		}
		go s.ServeConn(conn)
	}
}

func (s *Server) ServeConn(conn net.Conn) {
	defer conn.Close()
	id := atomic.AddInt32(&s.clientid, 1)
	logger(s.log).Printf("allocated %d for %s", id, conn.RemoteAddr())

	sess, err := yamux.Server(conn, nil)
	if err != nil {
		logger(s.log).Print(err)
		return
	}
	defer sess.Close()
	for {
		stream, err := sess.Accept()
		if err != nil {
			break
		}
		go s.ServeCodec(jsonrpc.NewServerCodec(stream))
	}
	logger(s.log).Printf("%s(%d) closed connection", conn.RemoteAddr(), id)
}

type ChunkService struct {
	server *Server
}

func (s *ChunkService) Fetch(req *FetchChunkRequest, rep *FetchChunkResponse) error {
	c := s.server.factory(Vec3{})
	coord := Vec3{req.X, req.Y, req.Z}
	c.SetOffset(Vec3{coord.X * c.Width(), coord.Y * c.Height(), coord.Z * c.Depth()})
	if err := s.server.loader.Load(c); err != nil {
		return errors.Wrapf(err, "load chunk %v", coord)
	}
	buf := new(bytes.Buffer)
	if err := c.Serialize(buf); err != nil {
		return err
	}
	rep.Data = buf.Bytes()
	return nil
}

type Client struct {
	*rpc.Client
	sess *yamux.Session
}

// Dial connects to a chunk server. The port defaults to 8421.
func Dial(addr string) (*Client, error) {
	if !strings.Contains(addr, ":") {
		addr += defaultPort
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	client, err := NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return client, nil
}

func NewClient(conn net.Conn) (*Client, error) {
	sess, err := yamux.Client(conn, nil)
	if err != nil {
		return nil, err
	}
	stream, err := sess.Open()
	if err != nil {
		sess.Close()
		return nil, err
	}
	return &Client{
		Client: rpc.NewClientWithCodec(jsonrpc.NewClientCodec(stream)),
		sess:   sess,
	}, nil
}

// Fetch returns the serialized chunk at coord.
func (c *Client) Fetch(coord Vec3) ([]byte, error) {
	req := FetchChunkRequest{X: coord.X, Y: coord.Y, Z: coord.Z}
	rep := new(FetchChunkResponse)
	if err := c.Call("Chunk.Fetch", req, rep); err != nil {
		return nil, errors.Wrapf(err, "fetch chunk %v", coord)
	}
	return rep.Data, nil
}

func (c *Client) Close() error {
	c.Client.Close()
	return c.sess.Close()
}

// RemoteLoader fills chunks with data fetched from a chunk server.
type RemoteLoader struct {
	Client *Client
	Lookup TypeLookup
}

func (l *RemoteLoader) Load(c Chunk) error {
	data, err := l.Client.Fetch(ChunkCoord(c))
	if err != nil {
		return err
	}
	ok, err := c.Deserialize(bytes.NewReader(data), l.Lookup)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrChunkMismatch, "remote chunk at %v", c.Offset())
	}
	return nil
}
